package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"mock-auth-server/internal/store"
)

type accessClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// Tokens issues and validates access tokens and owns the lifecycle of
// refresh tokens. Access tokens are stateless HS256 JWTs; their only
// server-side state is the logout blacklist. Refresh tokens are opaque
// ids stored until consumed.
type Tokens struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	refresh    *store.RefreshTokens
	blacklist  *store.Blacklist
}

func NewTokens(secret string, accessTTL, refreshTTL time.Duration, refresh *store.RefreshTokens, blacklist *store.Blacklist) *Tokens {
	return &Tokens{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		refresh:    refresh,
		blacklist:  blacklist,
	}
}

// IssueAccess signs a short-lived access token for the user. Returns the
// token and its absolute expiry as a unix timestamp.
func (t *Tokens) IssueAccess(userID string) (string, int64, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(t.accessTTL)

	claims := accessClaims{
		Type: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	encoded, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", 0, fmt.Errorf("sign access token: %w", err)
	}

	return encoded, expiresAt.Unix(), nil
}

// IssueRefresh mints an unguessable refresh-token id and stores its
// record. Returns the id and its absolute expiry as a unix timestamp.
func (t *Tokens) IssueRefresh(userID, targetServer string) (string, int64) {
	now := time.Now().UTC()
	token := store.RefreshToken{
		ID:           uuid.NewString(),
		UserID:       userID,
		TargetServer: targetServer,
		CreatedAt:    now,
		ExpiresAt:    now.Add(t.refreshTTL),
	}
	t.refresh.Put(token)

	return token.ID, token.ExpiresAt.Unix()
}

// ValidateAccess checks an Authorization header value and returns the
// token subject. Missing header, blacklisted token, bad signature,
// expiry and wrong token type all collapse into ok=false; callers never
// learn which check failed.
func (t *Tokens) ValidateAccess(authorization string) (string, bool) {
	raw := stripBearer(authorization)
	if raw == "" {
		return "", false
	}
	if t.blacklist.Contains(raw) {
		return "", false
	}

	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, t.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", false
	}
	if claims.Type != "access" {
		return "", false
	}

	return claims.Subject, true
}

// DecodeSubjectIgnoringExpiry verifies the signature but skips claim
// validation, so logging out with an already-expired access token still
// resolves to its user.
func (t *Tokens) DecodeSubjectIgnoringExpiry(raw string) (string, error) {
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, t.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation())
	if err != nil {
		return "", fmt.Errorf("decode access token: %w", err)
	}

	return claims.Subject, nil
}

// Rotate consumes the refresh token and mints a replacement pair bound
// to the same user. The token is removed from the store before the
// expiry check, so a replay fails with ErrRefreshNotFound regardless of
// which branch the first call took. "Never existed" and "already used"
// are indistinguishable on purpose.
func (t *Tokens) Rotate(refreshTokenID, targetServer string) (Pair, error) {
	record, ok := t.refresh.Take(refreshTokenID)
	if !ok {
		return Pair{}, ErrRefreshNotFound
	}
	if time.Now().UTC().After(record.ExpiresAt) {
		return Pair{}, ErrRefreshExpired
	}

	return t.issuePair(record.UserID, targetServer)
}

// Revoke blacklists the raw access token and removes every refresh token
// belonging to its subject. Works on expired tokens as long as the
// signature checks out. Returns how many refresh tokens were removed.
func (t *Tokens) Revoke(raw string) (int, error) {
	userID, err := t.DecodeSubjectIgnoringExpiry(raw)
	if err != nil {
		return 0, err
	}

	t.blacklist.Add(raw)
	return t.refresh.RevokeAllForUser(userID), nil
}

// RevokeAllForUser enforces the single-active-session invariant at
// login time.
func (t *Tokens) RevokeAllForUser(userID string) int {
	return t.refresh.RevokeAllForUser(userID)
}

// Pair is a freshly issued access + refresh token set.
type Pair struct {
	UserID                string
	AccessToken           string
	ExpiresAt             int64
	RefreshToken          string
	RefreshTokenExpiresAt int64
}

func (t *Tokens) issuePair(userID, targetServer string) (Pair, error) {
	access, accessExpiresAt, err := t.IssueAccess(userID)
	if err != nil {
		return Pair{}, err
	}
	refresh, refreshExpiresAt := t.IssueRefresh(userID, targetServer)

	return Pair{
		UserID:                userID,
		AccessToken:           access,
		ExpiresAt:             accessExpiresAt,
		RefreshToken:          refresh,
		RefreshTokenExpiresAt: refreshExpiresAt,
	}, nil
}

func (t *Tokens) keyFunc(token *jwt.Token) (any, error) {
	return t.secret, nil
}

func stripBearer(authorization string) string {
	value := strings.TrimSpace(authorization)
	if value == "" {
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(value, "Bearer "))
}

var (
	ErrRefreshNotFound = errors.New("refresh token not found or already used")
	ErrRefreshExpired  = errors.New("refresh token has expired")
)
