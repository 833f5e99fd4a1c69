package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/hupe1980/corelgo"
	"github.com/hupe1980/corelgo/prommetrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// serveMetrics exposes a run collector on cfg.Addr until shutdown is called.
func serveMetrics(cfg metricsConfig, logger *corelgo.Logger) (*prommetrics.Collector, func(), error) {
	ns := cfg.Namespace
	if ns == "" {
		ns = "corelgo"
	}
	c := prommetrics.New(ns)
	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		return nil, nil, err
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
	return c, shutdown, nil
}
