package spider

import (
	"crypto/md5"
	"encoding/hex"
	"sync"
)

// SeenSet holds the identity keys emitted during one run.
type SeenSet struct {
	mu      sync.Mutex
	visited map[string]bool
}

func NewSeenSet() *SeenSet {
	return &SeenSet{visited: make(map[string]bool, 100)}
}

func unique(key string) string {
	block := md5.Sum([]byte(key))
	return hex.EncodeToString(block[:])
}

func (s *SeenSet) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.visited[unique(key)]
}

// Add reports false when key was already present.
func (s *SeenSet) Add(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := unique(key)
	if s.visited[u] {
		return false
	}
	s.visited[u] = true
	return true
}

func (s *SeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.visited)
}
