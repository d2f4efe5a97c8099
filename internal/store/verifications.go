package store

import (
	"sync"
	"time"
)

// Challenge is one pending email-verification code. A single challenge
// exists per email; expiry is evaluated lazily by the caller, never by a
// background sweep.
type Challenge struct {
	Email     string
	Code      string
	CreatedAt time.Time
	Verified  bool
}

type Verifications struct {
	mu      sync.Mutex
	byEmail map[string]Challenge
}

func NewVerifications() *Verifications {
	return &Verifications{byEmail: make(map[string]Challenge)}
}

func (s *Verifications) Get(email string) (Challenge, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	challenge, ok := s.byEmail[email]
	return challenge, ok
}

// Put stores a fresh challenge, replacing any prior one for the email.
func (s *Verifications) Put(challenge Challenge) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byEmail[challenge.Email] = challenge
}

// MarkVerified flips the verified flag if the challenge still exists.
func (s *Verifications) MarkVerified(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	challenge, ok := s.byEmail[email]
	if !ok {
		return
	}
	challenge.Verified = true
	s.byEmail[email] = challenge
}

func (s *Verifications) Delete(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.byEmail, email)
}

func (s *Verifications) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.byEmail)
}

func (s *Verifications) Snapshot() []Challenge {
	s.mu.Lock()
	defer s.mu.Unlock()

	challenges := make([]Challenge, 0, len(s.byEmail))
	for _, challenge := range s.byEmail {
		challenges = append(challenges, challenge)
	}

	return challenges
}

