package store

import (
	"errors"
	"sync"
	"time"
)

type User struct {
	ID           string    `json:"user_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Users holds registered accounts keyed by lowercased email.
type Users struct {
	mu      sync.Mutex
	byEmail map[string]User
}

func NewUsers() *Users {
	return &Users{byEmail: make(map[string]User)}
}

// Create inserts the user if the email is still free. The check and the
// insert happen under one lock so concurrent identical registrations
// cannot both succeed.
func (s *Users) Create(user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return ErrEmailTaken
	}
	s.byEmail[user.Email] = user

	return nil
}

func (s *Users) Get(email string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byEmail[email]
	return user, ok
}

func (s *Users) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.byEmail)
}

// Snapshot returns a copy of all users for debug listings.
func (s *Users) Snapshot() []User {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]User, 0, len(s.byEmail))
	for _, user := range s.byEmail {
		users = append(users, user)
	}

	return users
}

var ErrEmailTaken = errors.New("email already registered")
