package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/symdoc/internal/daemon"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
	"git.home.luguber.info/inful/symdoc/internal/metrics"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	MetricsListen string `name:"metrics-listen" help:"Serve Prometheus metrics on this address (overrides metrics.listen)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	env, err := openEnvironment(root.Config, g.Logger, true)
	if err != nil {
		return err
	}
	defer env.close()

	ctx, cancel := signalContext()
	defer cancel()

	listen := env.cfg.Metrics.Listen
	if w.MetricsListen != "" {
		listen = w.MetricsListen
	}
	if listen != "" {
		reg := prom.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		env.service.WithRecorder(metrics.NewPrometheusRecorder(reg))
		stop := serveMetrics(listen, reg, g.Logger)
		defer stop()
	}

	d, err := daemon.New(env.cfg, env.service)
	if err != nil {
		return err
	}
	return d.WithLogger(g.Logger).Run(ctx)
}

// serveMetrics starts the /metrics endpoint and returns a function that
// shuts it down.
func serveMetrics(addr string, reg *prom.Registry, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second, ReadTimeout: 30 * time.Second, WriteTimeout: 30 * time.Second}

	go func() {
		logger.Info("Serving metrics", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", slog.String("addr", addr), logfields.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("Failed to stop metrics server", logfields.Error(err))
		}
	}
}
