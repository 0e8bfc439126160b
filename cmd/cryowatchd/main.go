package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cryowatch/cryowatch/internal/api"
	"github.com/cryowatch/cryowatch/internal/config"
	"github.com/cryowatch/cryowatch/internal/feed"
	"github.com/cryowatch/cryowatch/internal/monitor"
	"github.com/cryowatch/cryowatch/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("cryowatchd starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.Monitor.HTTPPort,
		"feed_mode", cfg.Feed.Mode,
		"sensitivity", cfg.Monitor.Sensitivity,
		"drift_warn", cfg.Monitor.Thresholds.DriftWarn,
		"drift_critical", cfg.Monitor.Thresholds.DriftCritical,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var opts []monitor.Option
	if cfg.Feed.Mode != "simulate" {
		fd, err := feed.New(cfg.Feed)
		if err != nil {
			slog.Error("failed to build feed", "err", err)
			os.Exit(1)
		}
		opts = append(opts, monitor.WithFeed(fd))
	}
	mon := monitor.New(cfg, opts...)

	// WebSocket hub: receives every tick the monitor produces.
	hub := ws.New()
	mon.OnUpdate(hub.Publish)
	go hub.Run(ctx)
	go mon.Run(ctx)

	// Watch the config file so thresholds and sensitivity can be tuned
	// without a restart. Structural fields (ports, feed mode) need one.
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			mon.Tune(monitor.Tuning{
				Thresholds:  updated.Monitor.Thresholds,
				Sensitivity: updated.Monitor.Sensitivity,
			})
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", api.New(mon, cfg.Monitor.Auth))
	httpMux.Handle("/ws/stream", hub)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Monitor.HTTPPort),
		Handler: httpMux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Monitor.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("cryowatchd shutting down")
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
}
