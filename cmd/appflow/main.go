package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	app "github.com/kode4food/appflow"
	"github.com/kode4food/appflow/internal/auth"
	"github.com/kode4food/appflow/internal/config"
	"github.com/kode4food/appflow/internal/monitor"
	"github.com/kode4food/appflow/internal/server"
	"github.com/kode4food/appflow/internal/store"
	"github.com/kode4food/appflow/pkg/log"
)

type appflow struct {
	cfg        *config.Config
	store      store.Store
	monitor    *monitor.Monitor
	apiServer  *server.Server
	httpServer *http.Server
	quit       chan os.Signal
}

var (
	ErrOpenStore    = errors.New("failed to open flow store")
	ErrStoreOffline = errors.New("flow store is not reachable")
)

func main() {
	cfg := config.NewDefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}

	s := &appflow{
		cfg:  cfg,
		quit: make(chan os.Signal, 1),
	}
	s.setupLogging()

	if err := s.run(); err != nil {
		slog.Error("Failed to start application", log.Error(err))
		os.Exit(1)
	}
}

func (s *appflow) run() error {
	if err := s.initializeStore(); err != nil {
		return err
	}

	s.monitor = monitor.New()
	s.monitor.Start()
	s.startServer()

	signal.Notify(s.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(s.quit)
	<-s.quit

	s.shutdown()
	return nil
}

func (s *appflow) setupLogging() {
	log.Install(app.Name, os.Getenv("ENV"), app.Version, s.cfg.LogLevel)

	slog.Info("App Flow starting",
		slog.String("log_level", s.cfg.LogLevel))

	slog.Info("Configuration loaded",
		slog.String("store_backend", s.cfg.Store.Backend),
		slog.String("redis_addr", s.cfg.Store.Redis.Addr),
		slog.Int("redis_db", s.cfg.Store.Redis.DB),
		slog.String("blob_bucket", s.cfg.Store.Blob.BucketURL),
		slog.Any("trusted_origins", s.cfg.TrustedOrigins),
		slog.String("api_host", s.cfg.APIHost),
		slog.Int("api_port", s.cfg.APIPort))
}

func (s *appflow) initializeStore() error {
	ctx, cancel := context.WithTimeout(
		context.Background(), s.cfg.ShutdownTimeout,
	)
	defer cancel()

	st, err := store.Open(ctx, s.cfg.Store)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpenStore, err)
	}
	if err := st.Ping(ctx); err != nil {
		_ = st.Close()
		return fmt.Errorf("%w: %w", ErrStoreOffline, err)
	}
	s.store = st
	return nil
}

func (s *appflow) startServer() {
	s.apiServer = server.NewServer(server.Dependencies{
		Store:          s.store,
		Auth:           auth.New(s.cfg.Auth),
		Monitor:        s.monitor,
		TrustedOrigins: s.cfg.TrustedOrigins,
	})
	mux := s.apiServer.SetupRoutes()

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.APIHost, s.cfg.APIPort),
		Handler: mux,
	}

	go func() {
		slog.Info("HTTP server starting",
			slog.String("addr", s.httpServer.Addr))
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", log.Error(err))
		}
	}()
}

func (s *appflow) shutdown() {
	slog.Info("Shutting down")

	ctx, cancel := context.WithTimeout(
		context.Background(), s.cfg.ShutdownTimeout,
	)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", log.Error(err))
	}

	s.apiServer.CloseSessions()
	s.monitor.Stop()

	if err := s.store.Close(); err != nil {
		slog.Error("Store shutdown failed", log.Error(err))
	}

	slog.Info("Server exited")
}
