package debug

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mock-auth-server/internal/respond"
	"mock-auth-server/internal/store"
)

func listing[T any](t *testing.T, handler http.HandlerFunc, target string) (respond.Base, []T) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var res struct {
		respond.Base
		Data []T `json:"Data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return res.Base, res.Data
}

func TestRegisteredUsers(t *testing.T) {
	t.Parallel()

	st := store.New()
	created := time.Now().UTC().Truncate(time.Second)
	_ = st.Users.Create(store.User{ID: "u1", Email: "a@example.com", PasswordHash: "secret-hash", CreatedAt: created})

	h := NewHandler(st, 5*time.Minute)
	base, users := listing[map[string]any](t, h.RegisteredUsers, "/debug/users/registered")

	if base.Message != "1 registered user(s)" {
		t.Fatalf("message = %q", base.Message)
	}
	if len(users) != 1 {
		t.Fatalf("users = %d, want 1", len(users))
	}
	if users[0]["email"] != "a@example.com" || users[0]["user_id"] != "u1" {
		t.Fatalf("user entry = %+v", users[0])
	}
	if users[0]["created_at"] != float64(created.Unix()) {
		t.Fatalf("created_at = %v, want %d", users[0]["created_at"], created.Unix())
	}
	// Hashes never leave the store.
	if _, leaked := users[0]["password_hash"]; leaked {
		t.Fatalf("password hash exposed: %+v", users[0])
	}
}

func TestActiveUsers_SkipsExpired(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	st := store.New()
	st.RefreshTokens.Put(store.RefreshToken{ID: "rt1", UserID: "u1", ExpiresAt: now.Add(time.Minute)})
	st.RefreshTokens.Put(store.RefreshToken{ID: "rt2", UserID: "u1", ExpiresAt: now.Add(2 * time.Minute)})
	st.RefreshTokens.Put(store.RefreshToken{ID: "rt3", UserID: "u2", ExpiresAt: now.Add(-time.Minute)})

	type activeEntry struct {
		UserID         string `json:"user_id"`
		ActiveSessions int    `json:"active_sessions"`
		EarliestExpiry int64  `json:"earliest_expiry"`
	}

	h := NewHandler(st, 5*time.Minute)
	base, active := listing[activeEntry](t, h.ActiveUsers, "/debug/users/active")

	if base.Message != "1 active user(s)" {
		t.Fatalf("message = %q", base.Message)
	}
	if len(active) != 1 {
		t.Fatalf("active = %+v, want one entry", active)
	}
	if active[0].UserID != "u1" || active[0].ActiveSessions != 2 {
		t.Fatalf("entry = %+v", active[0])
	}
	if active[0].EarliestExpiry != now.Add(time.Minute).Unix() {
		t.Fatalf("earliest expiry = %d", active[0].EarliestExpiry)
	}
}

func TestVerifications_RemainingClampedToZero(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	st := store.New()
	st.Verifications.Put(store.Challenge{Email: "fresh@example.com", Code: "111111", CreatedAt: now})
	st.Verifications.Put(store.Challenge{Email: "stale@example.com", Code: "222222", CreatedAt: now.Add(-time.Hour), Verified: true})

	type verificationEntry struct {
		Email            string `json:"email"`
		Code             string `json:"code"`
		Verified         bool   `json:"verified"`
		RemainingSeconds int    `json:"remaining_seconds"`
	}

	h := NewHandler(st, 5*time.Minute)
	base, entries := listing[verificationEntry](t, h.Verifications, "/debug/verifications")

	if base.Message != "2 verification code(s)" {
		t.Fatalf("message = %q", base.Message)
	}

	byEmail := make(map[string]verificationEntry, len(entries))
	for _, entry := range entries {
		byEmail[entry.Email] = entry
	}

	fresh := byEmail["fresh@example.com"]
	if fresh.Code != "111111" || fresh.Verified {
		t.Fatalf("fresh entry = %+v", fresh)
	}
	if fresh.RemainingSeconds <= 0 || fresh.RemainingSeconds > 300 {
		t.Fatalf("fresh remaining = %d", fresh.RemainingSeconds)
	}

	stale := byEmail["stale@example.com"]
	if !stale.Verified || stale.RemainingSeconds != 0 {
		t.Fatalf("stale entry = %+v", stale)
	}
}
