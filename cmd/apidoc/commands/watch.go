package commands

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/apidoc/internal/logfields"
	"git.home.luguber.info/inful/apidoc/internal/metrics"
	"git.home.luguber.info/inful/apidoc/internal/watch"
)

// WatchCmd implements the 'watch' command: continuous regeneration.
type WatchCmd struct {
	NoHistory bool `name:"no-history" help:"Skip recording runs in history"`
}

func (w *WatchCmd) Run(_ *Global, cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}

	svc, cleanup, err := buildService(cfg, w.NoHistory)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.Metrics.Listen != "" {
		registry := prom.NewRegistry()
		svc.WithRecorder(metrics.NewPrometheusRecorder(registry))
		go serveMetrics(cfg.Metrics.Listen, registry)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := func(ctx context.Context) error {
		_, err := svc.Run(ctx)
		return err
	}

	// Initial generation before entering watch mode.
	if err := run(ctx); err != nil {
		slog.Error("initial generation failed", logfields.Error(err))
	}

	watcher, err := watch.New(cfg, ".", run)
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()

	<-ctx.Done()
	slog.Info("shutting down")
	return nil
}

func serveMetrics(listen string, registry *prom.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(registry))
	server := &http.Server{Addr: listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	slog.Info("metrics endpoint listening", "addr", listen)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("metrics server failed", logfields.Error(err))
	}
}
