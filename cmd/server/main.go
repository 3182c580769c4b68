package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"ekaa/internal/platform/config"
	"ekaa/internal/platform/httpserver"
	"ekaa/internal/platform/logger"
)

const shutdownTimeout = 10 * time.Second

// main loads configuration, wires dependencies and runs the application and
// operations listeners until a termination signal arrives.
func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	app, err := build(ctx, cfg, log, reg)
	if err != nil {
		return err
	}
	defer app.close()

	servers := []*http.Server{httpserver.New(cfg.Addr, app.router)}
	if cfg.MetricsAddr != "" {
		servers = append(servers, httpserver.New(cfg.MetricsAddr, app.opsRouter))
	}
	endpoints := make([]endpoint, 0, len(servers))
	for _, srv := range servers {
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			for _, e := range endpoints {
				_ = e.ln.Close()
			}
			return fmt.Errorf("listen %s: %w", srv.Addr, err)
		}
		endpoints = append(endpoints, endpoint{srv: srv, ln: ln})
	}
	return serve(ctx, log, endpoints, app.workers)
}

type endpoint struct {
	srv *http.Server
	ln  net.Listener
}

// serve runs the endpoints until ctx ends, then shuts them down. Workers
// outlive the servers: they stop only after every in-flight request has
// finished and emitted its events.
func serve(ctx context.Context, log *slog.Logger, endpoints []endpoint, workers []func(context.Context) error) error {
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	var wg errgroup.Group
	for _, worker := range workers {
		wg.Go(func() error { return worker(workerCtx) })
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, e := range endpoints {
		g.Go(func() error {
			log.Info("listening", "addr", e.ln.Addr().String())
			if err := e.srv.Serve(e.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", e.srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		var errs []error
		for _, e := range endpoints {
			if err := e.srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown %s: %w", e.srv.Addr, err))
			}
		}
		return errors.Join(errs...)
	})
	serveErr := g.Wait()

	stopWorkers()
	return errors.Join(serveErr, wg.Wait())
}
