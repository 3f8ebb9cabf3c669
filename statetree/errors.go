package statetree

import "github.com/pkg/errors"

// Addressing errors are raised when a path walks through a value that can't
// support the next hop: a leaf where a mapping or sequence was expected, or
// a KeyedState wrapping a state whose value isn't a sequence at all. They
// are always local to the node that raised them (see Observer.Error) and
// never interrupt a sibling's subscription.

// ErrNotAddressable is the sentinel wrapped by addressing errors raised
// while plucking or replacing through a leaf value. Callers can match it
// with errors.Is.
var ErrNotAddressable = errors.New("statetree: value is not addressable at this key")

// ErrNotASequence is the sentinel wrapped by addressing errors raised when
// KeyedState is asked to operate on a wrapped State whose value is not a
// sequence ([]any).
var ErrNotASequence = errors.New("statetree: wrapped state value is not a sequence")

// ErrInvalidKey is the sentinel wrapped when a path element is neither a
// string (field name) nor a non-negative int (index).
var ErrInvalidKey = errors.New("statetree: key must be a string or a non-negative int")

func notAddressableErr(key any, path []any, v any) error {
	return errors.Wrapf(ErrNotAddressable, "sub(%v) at %v: value is %T", key, path, v)
}

func notASequenceErr(v any) error {
	return errors.Wrapf(ErrNotASequence, "keyed: wrapped value is %T", v)
}

func invalidKeyErr(key any) error {
	return errors.Wrapf(ErrInvalidKey, "got %v (%T)", key, key)
}
