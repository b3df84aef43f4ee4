// Package identifier hands out process-unique integer ids for entities that
// need one beyond their catalog slot (the hero, business bookkeeping).
package identifier

import "sync/atomic"

// Service allocates ids.
type Service interface {
	Next() int
}

// Sequence is a monotonically increasing id allocator starting at 1.
type Sequence struct {
	last atomic.Int64
}

// NewSequence creates a sequence whose first id is start+1.
func NewSequence(start int) *Sequence {
	s := &Sequence{}
	s.last.Store(int64(start))
	return s
}

// Next returns the next unused id.
func (s *Sequence) Next() int {
	return int(s.last.Add(1))
}
