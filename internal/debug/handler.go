// Package debug exposes read-only introspection listings for operators
// and test harnesses. Unauthenticated on purpose: this server only ever
// runs against test traffic.
package debug

import (
	"fmt"
	"net/http"
	"time"

	"mock-auth-server/internal/respond"
	"mock-auth-server/internal/store"
)

type Handler struct {
	store   *store.Store
	codeTTL time.Duration
}

func NewHandler(st *store.Store, codeTTL time.Duration) *Handler {
	return &Handler{store: st, codeTTL: codeTTL}
}

type registeredUser struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	CreatedAt int64  `json:"created_at"`
}

// RegisteredUsers lists accounts without their password hashes.
func (h *Handler) RegisteredUsers(w http.ResponseWriter, r *http.Request) {
	users := h.store.Users.Snapshot()

	listing := make([]registeredUser, 0, len(users))
	for _, user := range users {
		listing = append(listing, registeredUser{
			UserID:    user.ID,
			Email:     user.Email,
			CreatedAt: user.CreatedAt.Unix(),
		})
	}

	respond.Business(w, respond.List{
		Base: respond.OK("DEBUG", fmt.Sprintf("%d registered user(s)", len(listing))),
		Data: listing,
	})
}

type activeUser struct {
	UserID         string `json:"user_id"`
	ActiveSessions int    `json:"active_sessions"`
	EarliestExpiry int64  `json:"earliest_expiry"`
}

// ActiveUsers lists users holding at least one unexpired refresh token.
func (h *Handler) ActiveUsers(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()

	sessions := make(map[string]*activeUser)
	for _, token := range h.store.RefreshTokens.Snapshot() {
		if !token.ExpiresAt.After(now) {
			continue
		}

		entry, ok := sessions[token.UserID]
		if !ok {
			sessions[token.UserID] = &activeUser{
				UserID:         token.UserID,
				ActiveSessions: 1,
				EarliestExpiry: token.ExpiresAt.Unix(),
			}
			continue
		}

		entry.ActiveSessions++
		if expiry := token.ExpiresAt.Unix(); expiry < entry.EarliestExpiry {
			entry.EarliestExpiry = expiry
		}
	}

	listing := make([]activeUser, 0, len(sessions))
	for _, entry := range sessions {
		listing = append(listing, *entry)
	}

	respond.Business(w, respond.List{
		Base: respond.OK("DEBUG", fmt.Sprintf("%d active user(s)", len(listing))),
		Data: listing,
	})
}

type pendingVerification struct {
	Email            string `json:"email"`
	Code             string `json:"code"`
	Verified         bool   `json:"verified"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

// Verifications lists pending challenges with their remaining validity.
func (h *Handler) Verifications(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()

	challenges := h.store.Verifications.Snapshot()
	listing := make([]pendingVerification, 0, len(challenges))
	for _, challenge := range challenges {
		remaining := int((h.codeTTL - now.Sub(challenge.CreatedAt)).Seconds())
		if remaining < 0 {
			remaining = 0
		}

		listing = append(listing, pendingVerification{
			Email:            challenge.Email,
			Code:             challenge.Code,
			Verified:         challenge.Verified,
			RemainingSeconds: remaining,
		})
	}

	respond.Business(w, respond.List{
		Base: respond.OK("DEBUG", fmt.Sprintf("%d verification code(s)", len(listing))),
		Data: listing,
	})
}
