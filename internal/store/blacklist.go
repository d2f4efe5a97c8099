package store

import "sync"

// Blacklist is the set of raw access-token strings invalidated by
// logout. Entries live until the next full reset.
type Blacklist struct {
	mu     sync.Mutex
	tokens map[string]struct{}
}

func NewBlacklist() *Blacklist {
	return &Blacklist{tokens: make(map[string]struct{})}
}

func (s *Blacklist) Add(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[token] = struct{}{}
}

func (s *Blacklist) Contains(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.tokens[token]
	return ok
}

func (s *Blacklist) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.tokens)
}

