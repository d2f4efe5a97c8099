package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"mock-auth-server/internal/store"
)

func newTestTokens(accessTTL, refreshTTL time.Duration) *Tokens {
	return NewTokens("test-secret", accessTTL, refreshTTL, store.NewRefreshTokens(), store.NewBlacklist())
}

func TestTokens_IssueAndValidate(t *testing.T) {
	t.Parallel()

	tokens := newTestTokens(time.Minute, time.Minute)
	access, expiresAt, err := tokens.IssueAccess("u1")
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}
	if expiresAt <= time.Now().Unix() {
		t.Fatalf("expiry not in the future: %d", expiresAt)
	}

	for _, header := range []string{access, "Bearer " + access} {
		subject, ok := tokens.ValidateAccess(header)
		if !ok {
			t.Fatalf("ValidateAccess(%q) failed", header)
		}
		if subject != "u1" {
			t.Fatalf("subject = %q, want u1", subject)
		}
	}
}

func TestTokens_ValidateRejects(t *testing.T) {
	t.Parallel()

	tokens := newTestTokens(time.Minute, time.Minute)
	access, _, err := tokens.IssueAccess("u1")
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}

	t.Run("empty header", func(t *testing.T) {
		t.Parallel()
		if _, ok := tokens.ValidateAccess(""); ok {
			t.Fatalf("empty header accepted")
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		t.Parallel()
		if _, ok := tokens.ValidateAccess("Bearer not-a-jwt"); ok {
			t.Fatalf("garbage token accepted")
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()
		other := NewTokens("different-secret", time.Minute, time.Minute, store.NewRefreshTokens(), store.NewBlacklist())
		if _, ok := other.ValidateAccess(access); ok {
			t.Fatalf("token signed with another secret accepted")
		}
	})

	t.Run("expired", func(t *testing.T) {
		t.Parallel()
		expiredTokens := newTestTokens(-time.Second, time.Minute)
		expired, _, err := expiredTokens.IssueAccess("u1")
		if err != nil {
			t.Fatalf("IssueAccess error: %v", err)
		}
		if _, ok := expiredTokens.ValidateAccess(expired); ok {
			t.Fatalf("expired token accepted")
		}
	})

	t.Run("blacklisted", func(t *testing.T) {
		t.Parallel()
		if _, err := tokens.Revoke(access); err != nil {
			t.Fatalf("Revoke error: %v", err)
		}
		if _, ok := tokens.ValidateAccess(access); ok {
			t.Fatalf("blacklisted token accepted")
		}
	})

	t.Run("wrong type claim", func(t *testing.T) {
		t.Parallel()
		claims := accessClaims{
			Type: "refresh",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "u1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		if err != nil {
			t.Fatalf("sign error: %v", err)
		}
		if _, ok := tokens.ValidateAccess(signed); ok {
			t.Fatalf("non-access token type accepted")
		}
	})
}

func TestTokens_DecodeSubjectIgnoringExpiry(t *testing.T) {
	t.Parallel()

	tokens := newTestTokens(-time.Second, time.Minute)
	expired, _, err := tokens.IssueAccess("u1")
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}

	subject, err := tokens.DecodeSubjectIgnoringExpiry(expired)
	if err != nil {
		t.Fatalf("DecodeSubjectIgnoringExpiry error: %v", err)
	}
	if subject != "u1" {
		t.Fatalf("subject = %q, want u1", subject)
	}

	if _, err := tokens.DecodeSubjectIgnoringExpiry("not-a-jwt"); err == nil {
		t.Fatalf("expected decode error for garbage token")
	}
}

func TestTokens_RotateSingleUse(t *testing.T) {
	t.Parallel()

	tokens := newTestTokens(time.Minute, time.Minute)
	refresh, _ := tokens.IssueRefresh("u1", "GameServer")

	pair, err := tokens.Rotate(refresh, "GameServer")
	if err != nil {
		t.Fatalf("Rotate error: %v", err)
	}
	if pair.UserID != "u1" {
		t.Fatalf("pair user = %q, want u1", pair.UserID)
	}
	if pair.RefreshToken == refresh {
		t.Fatalf("rotation must mint a new refresh token")
	}

	if _, err := tokens.Rotate(refresh, "GameServer"); !errors.Is(err, ErrRefreshNotFound) {
		t.Fatalf("replay error = %v, want ErrRefreshNotFound", err)
	}
}

func TestTokens_RotateExpired(t *testing.T) {
	t.Parallel()

	tokens := newTestTokens(time.Minute, -time.Second)
	refresh, _ := tokens.IssueRefresh("u1", "GameServer")

	if _, err := tokens.Rotate(refresh, "GameServer"); !errors.Is(err, ErrRefreshExpired) {
		t.Fatalf("error = %v, want ErrRefreshExpired", err)
	}

	// The expired branch still consumed the token.
	if _, err := tokens.Rotate(refresh, "GameServer"); !errors.Is(err, ErrRefreshNotFound) {
		t.Fatalf("replay error = %v, want ErrRefreshNotFound", err)
	}
}

func TestTokens_RevokeRemovesRefreshTokens(t *testing.T) {
	t.Parallel()

	refreshStore := store.NewRefreshTokens()
	tokens := NewTokens("test-secret", time.Minute, time.Minute, refreshStore, store.NewBlacklist())

	access, _, err := tokens.IssueAccess("u1")
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}
	tokens.IssueRefresh("u1", "GameServer")
	tokens.IssueRefresh("u1", "GameServer")
	tokens.IssueRefresh("u2", "GameServer")

	revoked, err := tokens.Revoke(access)
	if err != nil {
		t.Fatalf("Revoke error: %v", err)
	}
	if revoked != 2 {
		t.Fatalf("revoked = %d, want 2", revoked)
	}
	if refreshStore.Len() != 1 {
		t.Fatalf("refresh store len = %d, want 1", refreshStore.Len())
	}
}
