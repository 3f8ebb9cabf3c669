package statetree

import (
	"fmt"

	"github.com/golang/glog"
)

// Logging convention used throughout this package:
// Info (level 0):
//     infrequent lifecycle events useful for monitoring (root
//     construction).
// Debug (level 2, via glog.V(2)):
//     key events for trace debugging - every broadcast, logged once per
//     broadcast with its trace and its origin from/to values.
// Warning:
//     recoverable anomalies that don't interrupt propagation - duplicate
//     keys in a KeyedState diff, rejected verification writes.
// Error:
//     addressing errors raised by a read, a write, or a derived stream,
//     including one raised on a State's downstream while no subscriber is
//     attached to observe it.

// LogFunction is a tagged, level-gated logging call, handed to internal
// components so they don't need to import glog directly.
type LogFunction func(format string, a ...any)

// logFn returns a LogFunction that writes through glog at the given
// verbosity, prefixed with tag. Verbosity 0 always logs (glog.Info-level);
// higher verbosities are gated by glog's -v flag the normal way.
func logFn(verbosity glog.Level, tag string) LogFunction {
	return func(format string, a ...any) {
		if verbosity == 0 || bool(glog.V(verbosity)) {
			glog.InfoDepth(1, fmt.Sprintf("%s: %s", tag, fmt.Sprintf(format, a...)))
		}
	}
}

func warnFn(tag string) LogFunction {
	return func(format string, a ...any) {
		glog.WarningDepth(1, fmt.Sprintf("%s: %s", tag, fmt.Sprintf(format, a...)))
	}
}

func errorFn(tag string) LogFunction {
	return func(format string, a ...any) {
		glog.ErrorDepth(1, fmt.Sprintf("%s: %s", tag, fmt.Sprintf(format, a...)))
	}
}
