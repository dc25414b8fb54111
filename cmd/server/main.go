package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"before-after/internal/auth"
	"before-after/internal/config"
	"before-after/internal/database"
	"before-after/internal/engine"
	"before-after/internal/engine/actors"
	"before-after/internal/handlers"
	"before-after/internal/middleware"
	"before-after/internal/utils"
	"before-after/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(os.Stderr, cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, cfg *config.LogConfig) *slog.Logger {
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.Level}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      cfg.Level,
		TimeFormat: time.Kitchen,
	}))
}

func openStore(ctx context.Context, cfg *config.DatabaseConfig) (database.Store, error) {
	switch cfg.Type {
	case config.DBTypeMemory:
		slog.Warn("using in-memory store; data is lost on restart")
		return database.NewMemoryStore(), nil
	case config.DBTypeMongo:
		return database.NewMongoDB(ctx, cfg.URI, cfg.Name)
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Type)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Database.Timeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Error("error closing store", "error", err)
		}
	}()

	metrics := utils.NewMetricsCollector()
	tokens := auth.NewTokenManager(cfg.Auth.Secret)
	authenticator := auth.NewAuthenticator(tokens, store)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := websocket.NewHub()
	go hub.Run(hubCtx)

	system := actor.NewActorSystem()
	defer system.Shutdown()

	eng := engine.NewEngine(system, engine.Options{
		Store:    store,
		Tokens:   tokens,
		Events:   hub,
		Metrics:  metrics,
		PoolSize: cfg.Server.ActorPoolSize,
		Settings: actors.Settings{
			DBTimeout:      cfg.Database.Timeout,
			PageSize:       cfg.Feed.PageSize,
			SuggestionSize: cfg.Feed.SuggestionSize,
		},
	})
	defer eng.Stop()

	server := handlers.NewServer(system, eng, authenticator, hub, metrics, handlers.Options{
		AuthHeader:     cfg.Auth.Header,
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		MetricsEnabled: cfg.Server.MetricsEnabled,
	})

	httpServer := &http.Server{
		Addr: cfg.Server.Addr(),
		Handler: middleware.Chain(server.Routes(),
			middleware.RequestLogger(logger, metrics),
			middleware.CORSMiddleware(server.CORS),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			"addr", httpServer.Addr,
			"db", cfg.Database.Type,
			"pool_size", cfg.Server.ActorPoolSize,
			"metrics", cfg.Server.MetricsEnabled)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
