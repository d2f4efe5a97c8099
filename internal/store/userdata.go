package store

import "sync"

// UserData is the opaque per-user blob exercised by the protected
// /api/data routes. Last authenticated writer wins.
type UserData struct {
	mu       sync.Mutex
	byUserID map[string]string
}

func NewUserData() *UserData {
	return &UserData{byUserID: make(map[string]string)}
}

func (s *UserData) Get(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.byUserID[userID]
}

func (s *UserData) Set(userID, blob string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byUserID[userID] = blob
}

func (s *UserData) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.byUserID, userID)
}

func (s *UserData) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.byUserID)
}

