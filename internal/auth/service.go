package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"mock-auth-server/internal/mail"
	"mock-auth-server/internal/observability"
	"mock-auth-server/internal/store"
)

const minPasswordLength = 4

// Service implements the register → verify → login → refresh → logout
// lifecycle on top of the store aggregate and the token engine.
type Service struct {
	store    *store.Store
	tokens   *Tokens
	mailer   mail.Sender
	logger   *observability.Logger
	codeTTL  time.Duration
	cooldown time.Duration
}

func NewService(st *store.Store, tokens *Tokens, mailer mail.Sender, logger *observability.Logger, codeTTL, cooldown time.Duration) *Service {
	return &Service{
		store:    st,
		tokens:   tokens,
		mailer:   mailer,
		logger:   logger,
		codeTTL:  codeTTL,
		cooldown: cooldown,
	}
}

func (s *Service) Tokens() *Tokens {
	return s.tokens
}

// SendCode validates the email, enforces the resend cooldown, stores a
// fresh challenge and dispatches it. A dispatch failure leaves the
// challenge in place so the caller can still verify from the console
// fallback or retry after cooldown.
func (s *Service) SendCode(email string) error {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return ErrInvalidEmail
	}
	if _, exists := s.store.Users.Get(email); exists {
		return ErrEmailExists
	}

	now := time.Now().UTC()
	if existing, ok := s.store.Verifications.Get(email); ok {
		elapsed := now.Sub(existing.CreatedAt)
		if elapsed < s.cooldown && elapsed < s.codeTTL {
			return CooldownError{Remaining: int((s.cooldown - elapsed).Seconds())}
		}
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate verification code: %w", err)
	}

	s.store.Verifications.Put(store.Challenge{
		Email:     email,
		Code:      code,
		CreatedAt: now,
	})

	if err := s.mailer.Send(email, code); err != nil {
		return fmt.Errorf("%w: %w", ErrDispatchFailed, err)
	}

	return nil
}

// VerifyCode checks the submitted code against the stored challenge and
// marks it verified on match. Calling again with the same correct code
// succeeds again.
func (s *Service) VerifyCode(email, code string) error {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)

	challenge, ok := s.store.Verifications.Get(email)
	if !ok {
		return ErrCodeNotFound
	}
	if time.Since(challenge.CreatedAt) > s.codeTTL {
		s.store.Verifications.Delete(email)
		return ErrCodeExpired
	}
	if challenge.Code != code {
		return ErrCodeMismatch
	}

	s.store.Verifications.MarkVerified(email)
	return nil
}

// Register finalizes an account. Checks run in a fixed precedence order:
// email shape, password length, duplicate email, challenge existence,
// verified flag, code match, expiry. Expiry is re-checked here because
// time has passed since verification.
func (s *Service) Register(email, password, code string) error {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)

	if !validEmail(email) {
		return ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return ErrInvalidPassword
	}
	if _, exists := s.store.Users.Get(email); exists {
		return ErrEmailExists
	}

	challenge, ok := s.store.Verifications.Get(email)
	if !ok {
		return ErrCodeNotFound
	}
	if !challenge.Verified {
		return ErrCodeNotVerified
	}
	if challenge.Code != code {
		return ErrCodeMismatch
	}
	if time.Since(challenge.CreatedAt) > s.codeTTL {
		s.store.Verifications.Delete(email)
		return ErrCodeExpired
	}

	user := store.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hashPassword(password),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.Users.Create(user); err != nil {
		return ErrEmailExists
	}
	s.store.Verifications.Delete(email)

	s.logger.Info("user_registered", map[string]any{
		"email":       email,
		"total_users": s.store.Users.Len(),
	})

	return nil
}

// Login checks credentials, revokes every prior refresh token for the
// user and issues a fresh token pair. At most one refresh token per user
// is alive after any successful login.
func (s *Service) Login(email, password string) (Pair, error) {
	email = normalizeEmail(email)

	if email == "" || password == "" {
		return Pair{}, ErrInvalidCredentials
	}

	user, ok := s.store.Users.Get(email)
	if !ok {
		return Pair{}, ErrUserNotFound
	}
	if user.PasswordHash != hashPassword(password) {
		return Pair{}, ErrWrongPassword
	}

	s.tokens.RevokeAllForUser(user.ID)
	return s.tokens.issuePair(user.ID, "GameServer")
}

// Refresh rotates the refresh token: single use, replay always fails.
func (s *Service) Refresh(refreshTokenID, targetServer string) (Pair, error) {
	return s.tokens.Rotate(refreshTokenID, targetServer)
}

// Logout blacklists the presented access token and revokes the subject's
// refresh tokens. Expired tokens are accepted as long as the signature
// verifies; a token that cannot be decoded at all is rejected.
func (s *Service) Logout(authorization string) (int, error) {
	if strings.TrimSpace(authorization) == "" {
		return 0, ErrMissingToken
	}
	raw := stripBearer(authorization)
	if raw == "" {
		return 0, ErrMissingToken
	}

	revoked, err := s.tokens.Revoke(raw)
	if err != nil {
		return 0, ErrInvalidToken
	}

	return revoked, nil
}

// Reset wipes every store and reports the prior cardinalities.
func (s *Service) Reset() store.Counts {
	counts := s.store.Reset()
	s.logger.Info("state_reset", map[string]any{
		"users":          counts.Users,
		"verifications":  counts.Verifications,
		"refresh_tokens": counts.RefreshTokens,
		"blacklisted":    counts.Blacklisted,
		"data_entries":   counts.DataEntries,
	})

	return counts
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	return email != "" && strings.Contains(email, "@")
}

// hashPassword is an unsalted SHA-256 digest. Deliberately weak: this is
// a test credential store and callers pin fixtures against reproducible
// hashes. Do not copy into anything production-facing.
func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// generateCode draws a uniformly random 6-digit numeric code, leading
// zeros allowed.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%06d", n.Int64()), nil
}

// CooldownError reports how long until a new code may be requested.
type CooldownError struct {
	Remaining int
}

func (e CooldownError) Error() string {
	return "verification code cooldown active"
}

var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrEmailExists        = errors.New("email already registered")
	ErrDispatchFailed     = errors.New("verification email dispatch failed")
	ErrCodeNotFound       = errors.New("verification code not found")
	ErrCodeExpired        = errors.New("verification code expired")
	ErrCodeMismatch       = errors.New("verification code mismatch")
	ErrCodeNotVerified    = errors.New("email not verified")
	ErrInvalidPassword    = errors.New("password too short")
	ErrInvalidCredentials = errors.New("missing email or password")
	ErrUserNotFound       = errors.New("email not registered")
	ErrWrongPassword      = errors.New("incorrect password")
	ErrMissingToken       = errors.New("authorization token required")
	ErrInvalidToken       = errors.New("invalid token")
)
