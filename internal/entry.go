// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/eihwaz/internal/api"
	"github.com/starford/eihwaz/internal/coordinator"
	"github.com/starford/eihwaz/internal/dragdrop"
	"github.com/starford/eihwaz/internal/mcpserver"
	"github.com/starford/eihwaz/internal/settings"
	"github.com/starford/eihwaz/internal/sse"
	"github.com/starford/eihwaz/internal/storage"
	"github.com/starford/eihwaz/internal/vault"
	"github.com/starford/eihwaz/internal/watch"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger. In MCP mode stdout carries the
	// protocol, so logs go to stderr.
	logOut := os.Stdout
	if app.mcpMode {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("settings_path", cfg.Settings.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return fmt.Errorf("create vault dir: %w", err)
	}

	// Initialize storage.
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// Initialize workspace persistence.
	db, err := settings.Open(cfg.Settings.Path)
	if err != nil {
		return fmt.Errorf("init settings: %w", err)
	}
	defer db.Close()

	// Restore the last workspace layout; ids gone stale since the last run
	// are pruned by the first refresh.
	state := vault.NewState()
	if snap, ok, loadErr := db.LoadSnapshot(); loadErr != nil {
		logger.Warn("workspace restore failed", slog.String("error", loadErr.Error()))
	} else if ok {
		state.Restore(snap)
		logger.Info("workspace restored",
			slog.Int("open_tabs", len(snap.OpenTabs)),
			slog.Int("expanded_folders", len(snap.ExpandedFolders)))
	}

	persist := func() {
		if saveErr := db.SaveSnapshot(state.Snapshot()); saveErr != nil {
			logger.Warn("workspace save failed", slog.String("error", saveErr.Error()))
		}
	}

	if app.mcpMode {
		coord := coordinator.New(store, state, nil, persist, logger)
		if err := coord.Refresh(ctx); err != nil {
			return fmt.Errorf("initial refresh: %w", err)
		}
		logger.Info("Starting MCP server on stdio")
		return mcpserver.New(coord, store).ServeStdio()
	}

	// SSE broker.
	broker := sse.NewBroker()
	defer broker.Close()

	// Coordinator and drag controller.
	coord := coordinator.New(store, state, broker, persist, logger)
	if err := coord.Refresh(ctx); err != nil {
		return fmt.Errorf("initial refresh: %w", err)
	}
	drag := dragdrop.New(coord, state)

	apiRouter := api.NewRouter(coord, drag, store, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the vault for external changes; each coalesced burst triggers a
	// refresh and a vault.changed broadcast.
	g.Go(func() error {
		err := watch.Watch(gCtx, cfg.Vault.Path, cfg.Watcher.Debounce, logger, func() {
			if refreshErr := coord.Refresh(gCtx); refreshErr != nil {
				logger.Warn("external refresh failed", slog.String("error", refreshErr.Error()))
				return
			}
			broker.Publish(sse.Event{Type: "vault.changed", Data: map[string]string{}})
		})
		if err != nil {
			return fmt.Errorf("vault watcher: %w", err)
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// Final save so the layout survives the shutdown.
		persist()

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
