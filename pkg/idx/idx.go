// Package idx generates lexicographically sortable identifiers (ULIDs) for
// token ids, request ids and login history rows.
package idx

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type ID string

func (id ID) String() string { return string(id) }

// source is shared so ids drawn in the same millisecond stay ordered.
var source = struct {
	sync.Mutex
	entropy *ulid.MonotonicEntropy
}{entropy: ulid.Monotonic(rand.Reader, 0)}

// New returns a ULID for the current time.
func New() ID {
	return NewAt(time.Now())
}

// NewAt returns a ULID stamped with t.
func NewAt(t time.Time) ID {
	source.Lock()
	defer source.Unlock()
	return ID(ulid.MustNew(ulid.Timestamp(t), source.entropy).String())
}
