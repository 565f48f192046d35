package repository

import (
	"sync"
	"time"
)

// sequence hands out strictly increasing numbers seeded from the wall clock,
// for stores that have no native auto-increment.
type sequence struct {
	mu   sync.Mutex
	last int64
}

func (s *sequence) next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := time.Now().UnixNano()
	if n <= s.last {
		n = s.last + 1
	}
	s.last = n
	return n
}

var messageSeq sequence
