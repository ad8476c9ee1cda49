package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/foresightlab/signalhub/internal/access"
	"github.com/foresightlab/signalhub/internal/auth"
	"github.com/foresightlab/signalhub/internal/httpapi"
	"github.com/foresightlab/signalhub/internal/search"
	"github.com/foresightlab/signalhub/internal/service"
	"github.com/foresightlab/signalhub/internal/storage/sqlite"
	"github.com/foresightlab/signalhub/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		slog.Warn("Ignoring non-numeric env value", "key", key, "value", value)
	}
	return fallback
}

func main() {
	logging.Setup()

	dbPath := getEnv("DB_PATH", "./data/signalhub.db")
	port := getEnvInt("PORT", 8080)
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}
	tokenHours := getEnvInt("JWT_TOKEN_HOURS", 24)
	apiKeyHash := os.Getenv("API_KEY_HASH")
	maxPerPage := getEnvInt("SEARCH_MAX_PER_PAGE", search.DefaultMaxPerPage)

	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", dbPath)

	resolver := access.NewResolver(store.Reader())
	guard := access.NewGuard(resolver, store.Reader(), slog.Default())
	engine := search.NewEngine(store, resolver, slog.Default(), maxPerPage)

	api := httpapi.New(
		service.NewSignalService(store, guard, engine),
		service.NewTrendService(store, guard, engine),
		service.NewGroupService(store),
	)

	jwtManager := auth.NewJWTManager(jwtSecret, time.Duration(tokenHours)*time.Hour)
	apiKeys := auth.NewAPIKeyVerifier(apiKeyHash)

	if getEnv("GIN_MODE", "") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.Router(jwtManager, apiKeys)

	addr := fmt.Sprintf(":%d", port)
	slog.Info("Server starting", "address", addr)
	if err := router.Run(addr); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
