// chatstub serves a local stand-in for the remote chat endpoint.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/ashureev/chatwidget/internal/config"
	"github.com/ashureev/chatwidget/internal/middleware"
	"github.com/ashureev/chatwidget/internal/stubserver"
	"github.com/ashureev/chatwidget/web"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))
	slog.SetDefault(logger)

	slog.Info("Starting chat stub",
		"port", cfg.Stub.Port,
		"rate_limit", cfg.Stub.RateLimit,
		"rate_window", cfg.Stub.RateWindow,
		"issue_sessions", cfg.Stub.IssueSessions)

	stub := stubserver.New(stubserver.Options{
		RateLimit:      cfg.Stub.RateLimit,
		RateWindow:     cfg.Stub.RateWindow,
		RetryAfter:     cfg.Stub.RetryAfter,
		IssueSessions:  cfg.Stub.IssueSessions,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		AuthToken:      cfg.Stub.AuthToken,
		AllowedOrigins: cfg.Stub.AllowedOrigins,
		Logger:         logger,
	})
	defer stub.Close()

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.Stub.AllowedOrigins))

	stub.RegisterRoutes(r)

	// Demo host page carrying the auth meta tag.
	r.Get("/", web.HostPageHandler(web.Page{
		AuthToken:  cfg.Stub.AuthToken,
		Endpoint:   cfg.Endpoint,
		SessionKey: cfg.SessionKey,
		Locale:     cfg.Locale(),
	}).ServeHTTP)

	srv := &http.Server{
		Addr:         ":" + cfg.Stub.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
