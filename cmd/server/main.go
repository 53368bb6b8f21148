package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/tableflow/llm-backend/internal/admin"
	"github.com/tableflow/llm-backend/internal/api"
	"github.com/tableflow/llm-backend/internal/auth"
	"github.com/tableflow/llm-backend/internal/cache"
	"github.com/tableflow/llm-backend/internal/config"
	"github.com/tableflow/llm-backend/internal/db"
	"github.com/tableflow/llm-backend/internal/llm"
	"github.com/tableflow/llm-backend/internal/ratelimit"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if cfg.GoogleAPIKey == "" {
		log.Println("warning: GOOGLE_API_KEY not set - LLM functionality will not work")
	}

	// LLM gateway
	client, err := llm.NewClient(cfg.GoogleAPIKey, cfg.LLMModel)
	if err != nil {
		log.Fatal("Failed to initialize LLM client:", err)
	}
	gateway := llm.NewGateway(client, cfg.LLMTimeout)

	// Rate limiter
	var limiter ratelimit.Limiter
	if cfg.RateLimitBackend == "redis" {
		redisLimiter, err := ratelimit.NewRedisLimiter(cfg.RedisURL, cfg.RateLimitPerMinute)
		if err != nil {
			log.Fatal("Failed to initialize rate limiter:", err)
		}
		defer redisLimiter.Close()
		limiter = redisLimiter
	} else {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimitPerMinute)
	}

	// Client authentication
	authenticator := auth.NewAuthenticator(cfg.APIKeys, cfg.APIKeyHeader, cfg.JWTSecret)

	// Optional access-log store
	var store *db.Store
	var accessLog api.AccessLogger
	if cfg.DatabaseURL != "" {
		store, err = db.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(context.Background()); err != nil {
			log.Fatal("Failed to ensure schema:", err)
		}
		accessLog = store
	}

	// Optional response cache
	var respCache api.ResponseCache
	if cfg.RedisURL != "" {
		responseCache, err := cache.New(cfg.RedisURL)
		if err != nil {
			log.Fatal("Failed to initialize response cache:", err)
		}
		defer responseCache.Close()
		respCache = responseCache
	}

	// Router
	router := mux.NewRouter()

	handler := api.NewHandler(authenticator, limiter, gateway, accessLog, respCache, cfg.JWTSecret)
	handler.RegisterRoutes(router)

	if store != nil {
		admin.NewAdminHandler(store).RegisterRoutes(router)
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", cfg.APIKeyHeader},
	}).Handler(api.RequestID(router))

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      corsHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  90 * time.Second,
	}

	log.Printf("llm-backend starting on port %s (debug=%t)", cfg.ServerPort, cfg.Debug)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal("Server failed:", err)
	}
}
