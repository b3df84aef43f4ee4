package identifier

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceIsUnique(t *testing.T) {
	s := NewSequence(0)

	var mu sync.Mutex
	seen := make(map[int]bool)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := s.Next()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 100)
	assert.Equal(t, 101, s.Next())
}
