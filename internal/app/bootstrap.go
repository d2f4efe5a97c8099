// Package app assembles the mock auth backend: configuration from the
// environment, the in-memory store aggregate, the service graph and the
// HTTP routing table.
package app

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"mock-auth-server/internal/auth"
	"mock-auth-server/internal/data"
	"mock-auth-server/internal/debug"
	"mock-auth-server/internal/faults"
	"mock-auth-server/internal/mail"
	"mock-auth-server/internal/observability"
	"mock-auth-server/internal/respond"
	"mock-auth-server/internal/store"
)

// Config carries every tunable. TTL defaults are deliberately short so
// token expiry is observable inside a test run.
type Config struct {
	Port       string
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	CodeTTL    time.Duration
	Cooldown   time.Duration
	Mail       mail.Config
	SentryDSN  string
	AppEnv     string
}

// ConfigFromEnv reads the environment, falling back to the fixed test
// defaults. Nothing is required: the server must come up bare.
func ConfigFromEnv() Config {
	codeTTL := envSecondsOrDefault("VERIFICATION_CODE_TTL_SECONDS", 300)

	return Config{
		Port:       envOrDefault("PORT", "5000"),
		JWTSecret:  envOrDefault("JWT_SECRET", "mock-auth-test-secret-key"),
		AccessTTL:  envSecondsOrDefault("ACCESS_TOKEN_TTL_SECONDS", 15),
		RefreshTTL: envSecondsOrDefault("REFRESH_TOKEN_TTL_SECONDS", 60),
		CodeTTL:    codeTTL,
		Cooldown:   envSecondsOrDefault("VERIFICATION_COOLDOWN_SECONDS", 60),
		Mail: mail.Config{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     envIntOrDefault("SMTP_PORT", 587),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
			CodeTTL:  codeTTL,
		},
		SentryDSN: os.Getenv("SENTRY_DSN"),
		AppEnv:    envOrDefault("APP_ENV", "development"),
	}
}

type Runtime struct {
	Handler http.Handler
	Close   func()
}

// Build wires the full server from a config. All state lives in the
// returned runtime; building twice yields two fully isolated servers.
func Build(cfg Config, logger *observability.Logger) (*Runtime, error) {
	if err := observability.InitSentry(cfg.SentryDSN, cfg.AppEnv); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	st := store.New()
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL, st.RefreshTokens, st.Blacklist)
	mailer := mail.NewSender(cfg.Mail, logger)
	authService := auth.NewService(st, tokens, mailer, logger, cfg.CodeTTL, cfg.Cooldown)
	authHandler := auth.NewHandler(authService)
	dataHandler := data.NewHandler(st.UserData, logger)
	debugHandler := debug.NewHandler(st, cfg.CodeTTL)

	smtpStatus := "console fallback"
	if cfg.Mail.Host != "" && cfg.Mail.User != "" {
		smtpStatus = cfg.Mail.Host + ":" + strconv.Itoa(cfg.Mail.Port)
	}
	logger.Info("server_config", map[string]any{
		"smtp":                smtpStatus,
		"access_token_ttl_s":  int(cfg.AccessTTL.Seconds()),
		"refresh_token_ttl_s": int(cfg.RefreshTTL.Seconds()),
		"verify_code_ttl_s":   int(cfg.CodeTTL.Seconds()),
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /timeout", faults.TimeoutHandler(logger))

	mux.HandleFunc("POST /auth/register/send-code", authHandler.SendCode)
	mux.HandleFunc("POST /auth/register/verify-code", authHandler.VerifyCode)
	mux.HandleFunc("POST /auth/register", authHandler.Register)
	mux.HandleFunc("POST /auth/login", authHandler.Login)
	mux.HandleFunc("POST /auth/refresh", authHandler.Refresh)
	mux.HandleFunc("POST /auth/logout", authHandler.Logout)
	mux.HandleFunc("POST /auth/reset", authHandler.Reset)

	mux.Handle("GET /api/data", auth.Middleware(tokens, http.HandlerFunc(dataHandler.Get)))
	mux.Handle("POST /api/data", auth.Middleware(tokens, http.HandlerFunc(dataHandler.Put)))
	mux.Handle("PUT /api/data", auth.Middleware(tokens, http.HandlerFunc(dataHandler.Put)))
	mux.Handle("DELETE /api/data", auth.Middleware(tokens, http.HandlerFunc(dataHandler.Delete)))

	mux.HandleFunc("GET /debug/users/registered", debugHandler.RegisteredUsers)
	mux.HandleFunc("GET /debug/users/active", debugHandler.ActiveUsers)
	mux.HandleFunc("GET /debug/verifications", debugHandler.Verifications)

	handler := observability.RecoverMiddleware(logger, observability.RequestLoggingMiddleware(logger, mux))

	return &Runtime{
		Handler: handler,
		Close:   observability.FlushSentry,
	}, nil
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	respond.Business(w, respond.OK("HEALTH_OK", "Server is running"))
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envIntOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envSecondsOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Second
}
