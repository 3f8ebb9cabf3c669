package statetree

import (
	"encoding/hex"

	"github.com/oklog/ulid/v2"
)

// Id is a creation-time-ordered identifier, used for Diagnostic records and
// as the keys of KeyedState's bounded history, so entries can be logged and
// correlated without a central counter.
type Id [16]byte

// NewId returns a new, creation-ordered Id.
func NewId() Id {
	return Id(ulid.Make())
}

func (id Id) String() string {
	return hex.EncodeToString(id[:])
}

// LessThan reports whether id was created before other; Ids from the same
// process are ordered by creation time.
func (id Id) LessThan(other Id) bool {
	return ulid.ULID(id).Compare(ulid.ULID(other)) < 0
}
