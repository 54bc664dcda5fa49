package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/tradejournal/src/config"
	"github.com/username/tradejournal/src/database"
	"github.com/username/tradejournal/src/handlers"
	"github.com/username/tradejournal/src/logger"
	"github.com/username/tradejournal/src/parsers"
	"github.com/username/tradejournal/src/services"
	"github.com/username/tradejournal/src/storage"
	"golang.org/x/time/rate"
)

var limiter *rate.Limiter

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, If-None-Match, X-Request-ID")
			w.Header().Set("Access-Control-Expose-Headers", "ETag, X-Request-ID")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Trade journal backend server starting...")

	limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), config.Cfg.RateLimitBurst)

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)

	logger.L.Info("Initializing file store...", "dataDir", config.Cfg.DataDir)
	fileStore, err := storage.NewFileStore(config.Cfg.DataDir)
	if err != nil {
		stdlog.Fatalf("Failed to initialize file store: %v", err)
	}

	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)

	logger.L.Info("Initializing services and handlers...")
	activityParser := parsers.NewActivityParser()
	processingService := services.NewProcessingService(fileStore, activityParser, reportCache)

	tradesHandler := handlers.NewTradesHandler(processingService)
	uploadHandler := handlers.NewUploadHandler(processingService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("GET /api/trades", tradesHandler.HandleGetTrades)
	apiRouter.HandleFunc("GET /api/trades/verify", tradesHandler.HandleVerifyTrades)
	apiRouter.HandleFunc("GET /api/trades/stored", tradesHandler.HandleGetStoredTrades)
	apiRouter.HandleFunc("POST /api/trades/upload", uploadHandler.HandleUpload)
	apiRouter.HandleFunc("GET /api/trades/upload", uploadHandler.HandleListFiles)
	apiRouter.HandleFunc("DELETE /api/trades/upload", uploadHandler.HandleDeleteFile)

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "Trade journal backend is running"})
			return
		}
		logger.L.Warn("Path not found", "method", r.Method, "path", r.URL.Path)
		http.NotFound(w, r)
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(handlers.RequestIDMiddleware(rootMux)))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
