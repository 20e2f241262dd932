package store

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// sequencer assigns message ids and creation times. Creation times are
// strictly increasing at millisecond precision within a process, and ids sort
// in the same order.
type sequencer struct {
	mu      sync.Mutex
	now     func() time.Time
	lastMs  int64
	entropy *ulid.MonotonicEntropy
}

func newSequencer() *sequencer {
	return &sequencer{
		now:     time.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// next returns a new message id and its creation time in unix milliseconds.
func (s *sequencer) next() (string, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ms := s.now().UnixMilli()
	if ms <= s.lastMs {
		ms = s.lastMs + 1
	}
	s.lastMs = ms

	id := ulid.MustNew(uint64(ms), s.entropy)
	return id.String(), ms
}

func newUserID() string {
	return uuid.NewString()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
