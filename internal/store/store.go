// Package store holds the server's entire mutable state: plain keyed
// maps with one mutex per store, scoped to the process lifetime. Nothing
// here survives a restart, by design — the server exists to be reset.
package store

// Store aggregates the five in-memory stores. Built once per process and
// passed by reference to every component that mutates state.
type Store struct {
	Users         *Users
	Verifications *Verifications
	RefreshTokens *RefreshTokens
	Blacklist     *Blacklist
	UserData      *UserData
}

func New() *Store {
	return &Store{
		Users:         NewUsers(),
		Verifications: NewVerifications(),
		RefreshTokens: NewRefreshTokens(),
		Blacklist:     NewBlacklist(),
		UserData:      NewUserData(),
	}
}

// Counts reports per-store cardinalities, as returned by a reset.
type Counts struct {
	Users         int
	Verifications int
	RefreshTokens int
	Blacklisted   int
	DataEntries   int
}

// Reset clears every store and returns the cardinalities from before the
// wipe. All five locks are taken in a fixed order so no request can
// observe a half-cleared state.
func (s *Store) Reset() Counts {
	s.Users.mu.Lock()
	defer s.Users.mu.Unlock()
	s.Verifications.mu.Lock()
	defer s.Verifications.mu.Unlock()
	s.RefreshTokens.mu.Lock()
	defer s.RefreshTokens.mu.Unlock()
	s.Blacklist.mu.Lock()
	defer s.Blacklist.mu.Unlock()
	s.UserData.mu.Lock()
	defer s.UserData.mu.Unlock()

	counts := Counts{
		Users:         len(s.Users.byEmail),
		Verifications: len(s.Verifications.byEmail),
		RefreshTokens: len(s.RefreshTokens.byID),
		Blacklisted:   len(s.Blacklist.tokens),
		DataEntries:   len(s.UserData.byUserID),
	}

	s.Users.byEmail = make(map[string]User)
	s.Verifications.byEmail = make(map[string]Challenge)
	s.RefreshTokens.byID = make(map[string]RefreshToken)
	s.Blacklist.tokens = make(map[string]struct{})
	s.UserData.byUserID = make(map[string]string)

	return counts
}
