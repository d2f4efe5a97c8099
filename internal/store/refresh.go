package store

import (
	"sync"
	"time"
)

type RefreshToken struct {
	ID           string
	UserID       string
	TargetServer string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// RefreshTokens holds live refresh tokens keyed by their opaque id.
type RefreshTokens struct {
	mu   sync.Mutex
	byID map[string]RefreshToken
}

func NewRefreshTokens() *RefreshTokens {
	return &RefreshTokens{byID: make(map[string]RefreshToken)}
}

func (s *RefreshTokens) Put(token RefreshToken) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID[token.ID] = token
}

// Take removes and returns the token in one step. This is the single-use
// primitive: whoever gets ok=true owns the token, a replay sees ok=false.
func (s *RefreshTokens) Take(id string) (RefreshToken, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.byID[id]
	if ok {
		delete(s.byID, id)
	}

	return token, ok
}

// RevokeAllForUser deletes every token belonging to the user and returns
// how many were removed.
func (s *RefreshTokens) RevokeAllForUser(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, token := range s.byID {
		if token.UserID == userID {
			delete(s.byID, id)
			count++
		}
	}

	return count
}

func (s *RefreshTokens) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.byID)
}

func (s *RefreshTokens) Snapshot() []RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens := make([]RefreshToken, 0, len(s.byID))
	for _, token := range s.byID {
		tokens = append(tokens, token)
	}

	return tokens
}

