package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf13/afero"

	"github.com/pingtools/jobtrack/server/internal/alerts"
	"github.com/pingtools/jobtrack/server/internal/api"
	"github.com/pingtools/jobtrack/server/internal/config"
	"github.com/pingtools/jobtrack/server/internal/metrics"
	"github.com/pingtools/jobtrack/server/internal/store"
	"github.com/pingtools/jobtrack/server/internal/sweeper"
	"github.com/pingtools/jobtrack/server/internal/web"
	"github.com/pingtools/jobtrack/server/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	var level slog.LevelVar
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: &level}))
	slog.SetDefault(logger)

	slog.Info("jobtrack-server starting", "config", *configPath)

	cfg, watchConfig, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	level.Set(cfg.Log.SlogLevel())

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"store_path", cfg.Store.Path,
		"sweep_interval", cfg.Sweeper.Interval,
		"refresh_interval", cfg.UI.RefreshInterval,
		"webhooks", len(cfg.Alerts.Webhooks),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Job store mirrored to the state file on every change.
	st := store.New(store.NewFile(afero.NewOsFs(), cfg.Store.Path))
	st.Load()

	notifier := alerts.New(cfg.Alerts)

	// Loops joined on shutdown so no sweep is cut off mid-write.
	var bg background

	sweep := sweeper.New(st, cfg.Sweeper.Interval, notifier)
	bg.Go(func() { sweep.Run(ctx) })

	hub := ws.New(st, cfg.UI.RefreshInterval)
	bg.Go(func() { hub.Run(ctx) })

	if watchConfig {
		bg.Go(func() {
			err := config.Watch(ctx, *configPath, func(next *config.Config) {
				level.Set(next.Log.SlogLevel())
				notifier.SetWebhooks(next.Alerts)
				slog.Info("config reloaded", "log_level", next.Log.Level, "webhooks", len(next.Alerts.Webhooks))
			})
			if err != nil {
				slog.Warn("config watch disabled", "err", err)
			}
		})
	}

	apiHandler := api.New(st, notifier)

	router := mux.NewRouter()
	router.PathPrefix("/api/").Handler(apiHandler)
	router.Handle("/healthz", apiHandler)
	router.Handle("/ws/stream", hub)
	router.Handle("/metrics", metrics.Handler(st))
	web.New(st, cfg.UI.RefreshInterval).RegisterRoutes(router)

	// An empty origin list lets cors allow every origin.
	corsOpts := cors.Options{
		AllowedOrigins: cfg.Server.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           cors.New(corsOpts).Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}
	bg.Go(func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	})

	<-ctx.Done()
	slog.Info("jobtrack-server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
	bg.Wait()
	notifier.Wait()
	slog.Info("jobtrack-server stopped")
}

// background runs long-lived loops and waits for all of them to return.
type background struct {
	wg sync.WaitGroup
}

// Go runs fn in its own goroutine.
func (b *background) Go(fn func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fn()
	}()
}

// Wait blocks until every fn passed to Go has returned.
func (b *background) Wait() {
	b.wg.Wait()
}

// loadConfig reads path. A missing file yields the defaults and disables the
// watcher; any other error is fatal.
func loadConfig(path string) (*config.Config, bool, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("config file not found, using defaults", "path", path)
		return config.Default(), false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}
