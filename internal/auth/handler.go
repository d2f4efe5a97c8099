package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"

	"mock-auth-server/internal/respond"
)

const maxJSONBodyBytes = 1 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type sendCodeRequest struct {
	Email string `json:"email"`
}

type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	UserID       string `json:"userId"`
	TargetServer string `json:"targetServer"`
	RefreshToken string `json:"refreshToken"`
}

func (h *Handler) SendCode(w http.ResponseWriter, r *http.Request) {
	var body sendCodeRequest
	if !decodeBody(w, r, &body) {
		return
	}

	err := h.service.SendCode(body.Email)
	if err == nil {
		respond.Business(w, respond.OK("CODE_SENT", "Verification code has been sent to your email."))
		return
	}

	var cooldown CooldownError
	switch {
	case errors.Is(err, ErrInvalidEmail):
		respond.Business(w, respond.Fail("INVALID_EMAIL", "Please enter a valid email address."))
	case errors.Is(err, ErrEmailExists):
		respond.Business(w, respond.Fail("EMAIL_ALREADY_EXISTS", "Email already registered."))
	case errors.As(err, &cooldown):
		respond.Business(w, respond.Fail("CODE_COOLDOWN",
			fmt.Sprintf("Verification code already sent. Please try again in %d seconds.", cooldown.Remaining)))
	case errors.Is(err, ErrDispatchFailed):
		sentry.CaptureException(err)
		respond.Business(w, respond.Fail("EMAIL_SEND_FAILED", "Failed to send verification email. Please try again later."))
	default:
		sentry.CaptureException(err)
		respond.JSON(w, http.StatusInternalServerError, respond.Fail("INTERNAL_ERROR", "Internal server error"))
	}
}

func (h *Handler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var body verifyCodeRequest
	if !decodeBody(w, r, &body) {
		return
	}

	switch err := h.service.VerifyCode(body.Email, body.Code); {
	case err == nil:
		respond.Business(w, respond.OK("CODE_VERIFIED", "Email verification completed."))
	case errors.Is(err, ErrCodeNotFound):
		respond.Business(w, respond.Fail("CODE_NOT_FOUND", "Please request a verification code first."))
	case errors.Is(err, ErrCodeExpired):
		respond.Business(w, respond.Fail("CODE_EXPIRED", "Verification code has expired. Please request a new one."))
	default:
		respond.Business(w, respond.Fail("CODE_MISMATCH", "Verification code does not match."))
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if !decodeBody(w, r, &body) {
		return
	}

	switch err := h.service.Register(body.Email, body.Password, body.Code); {
	case err == nil:
		respond.Business(w, respond.OK("REGISTER_SUCCESS", "Registration completed successfully."))
	case errors.Is(err, ErrInvalidEmail):
		respond.Business(w, respond.Fail("INVALID_EMAIL", "Please enter a valid email address."))
	case errors.Is(err, ErrInvalidPassword):
		respond.Business(w, respond.Fail("INVALID_PASSWORD", "Password must be at least 4 characters."))
	case errors.Is(err, ErrEmailExists):
		respond.Business(w, respond.Fail("EMAIL_ALREADY_EXISTS", "Email already registered."))
	case errors.Is(err, ErrCodeNotFound):
		respond.Business(w, respond.Fail("CODE_NOT_FOUND", "Please request a verification code first."))
	case errors.Is(err, ErrCodeNotVerified):
		respond.Business(w, respond.Fail("CODE_NOT_VERIFIED", "Please complete email verification first."))
	case errors.Is(err, ErrCodeMismatch):
		respond.Business(w, respond.Fail("CODE_MISMATCH", "Verification code does not match."))
	default:
		respond.Business(w, respond.Fail("CODE_EXPIRED", "Verification code has expired. Please request a new one."))
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if !decodeBody(w, r, &body) {
		return
	}

	pair, err := h.service.Login(body.Email, body.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			respond.Business(w, respond.Auth{Base: respond.Fail("INVALID_CREDENTIALS", "Please enter email and password.")})
		case errors.Is(err, ErrUserNotFound):
			respond.Business(w, respond.Auth{Base: respond.Fail("USER_NOT_FOUND", "Email not registered.")})
		case errors.Is(err, ErrWrongPassword):
			respond.Business(w, respond.Auth{Base: respond.Fail("WRONG_PASSWORD", "Incorrect password.")})
		default:
			sentry.CaptureException(err)
			respond.JSON(w, http.StatusInternalServerError, respond.Fail("INTERNAL_ERROR", "Internal server error"))
		}
		return
	}

	respond.Business(w, authResponse(pair,
		respond.OK("LOGIN_SUCCESS", fmt.Sprintf("Login successful: %s", normalizeEmail(body.Email)))))
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var body refreshRequest
	if !decodeBody(w, r, &body) {
		return
	}

	pair, err := h.service.Refresh(body.RefreshToken, body.TargetServer)
	if err != nil {
		switch {
		case errors.Is(err, ErrRefreshNotFound):
			respond.Business(w, respond.Auth{Base: respond.Fail("INVALID_REFRESH_TOKEN", "Refresh token not found or already used")})
		case errors.Is(err, ErrRefreshExpired):
			respond.Business(w, respond.Auth{Base: respond.Fail("REFRESH_TOKEN_EXPIRED", "Refresh token has expired")})
		default:
			sentry.CaptureException(err)
			respond.JSON(w, http.StatusInternalServerError, respond.Fail("INTERNAL_ERROR", "Internal server error"))
		}
		return
	}

	respond.Business(w, authResponse(pair, respond.OK("REFRESH_SUCCESS", "Token refreshed successfully")))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	revoked, err := h.service.Logout(r.Header.Get("Authorization"))
	if err != nil {
		if errors.Is(err, ErrMissingToken) {
			respond.Business(w, respond.Fail("MISSING_TOKEN", "Authorization header is required."))
			return
		}
		respond.Business(w, respond.Fail("INVALID_TOKEN", "Invalid token."))
		return
	}

	respond.Business(w, respond.OK("LOGOUT_SUCCESS",
		fmt.Sprintf("Logged out. %d refresh token(s) revoked.", revoked)))
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	counts := h.service.Reset()
	respond.Business(w, respond.OK("RESET_SUCCESS", fmt.Sprintf(
		"Cleared %d users, %d verifications, %d refresh tokens, %d blacklisted tokens, %d user data entries",
		counts.Users, counts.Verifications, counts.RefreshTokens, counts.Blacklisted, counts.DataEntries)))
}

func authResponse(pair Pair, base respond.Base) respond.Auth {
	return respond.Auth{
		Base:                  base,
		AccessToken:           pair.AccessToken,
		ExpiresAt:             pair.ExpiresAt,
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		UserId:                pair.UserID,
	}
}

// decodeBody reads a JSON body leniently: unknown fields are ignored and
// absent fields stay zero, matching what the client under test sends.
func decodeBody(w http.ResponseWriter, r *http.Request, into any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		respond.JSON(w, http.StatusBadRequest, respond.Fail("INVALID_BODY", "Invalid JSON body"))
		return false
	}

	return true
}
