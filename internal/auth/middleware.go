package auth

import (
	"context"
	"net/http"

	"mock-auth-server/internal/respond"
)

type contextKey struct{}

var subjectKey contextKey

// Middleware is the authentication gate for protected routes. It
// validates the bearer token and puts the subject into the request
// context; on any failure the protected handler never runs.
func Middleware(tokens *Tokens, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, ok := tokens.ValidateAccess(r.Header.Get("Authorization"))
		if !ok {
			respond.JSON(w, http.StatusUnauthorized, respond.Fail("UNAUTHORIZED", "Unauthorized"))
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), subjectKey, subject)))
	})
}

// SubjectFromContext returns the user id the gate attached to the
// request.
func SubjectFromContext(ctx context.Context) string {
	subject, _ := ctx.Value(subjectKey).(string)
	return subject
}
