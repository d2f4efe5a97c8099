package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"mock-auth-server/internal/app"
	"mock-auth-server/internal/observability"
)

func main() {
	_ = godotenv.Load()

	logger := observability.NewLogger()

	cfg := app.ConfigFromEnv()
	runtime, err := app.Build(cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer runtime.Close()

	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("server_start", map[string]any{"addr": addr})
	if err := http.ListenAndServe(addr, runtime.Handler); err != nil {
		logger.Error("server_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
