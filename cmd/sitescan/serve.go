package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/spf13/cobra"

	"github.com/olegrjumin/sitescan/internal/httpapi"
	"github.com/olegrjumin/sitescan/internal/metrics"
	"github.com/olegrjumin/sitescan/internal/service"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scan HTTP API",
		Long: `Serve starts the HTTP API:

  POST /scan          scan one page
  GET  /scan/{id}     look up a past scan (results are not stored: always 404)
  GET  /scan/stream   scan one page, streaming progress as Server-Sent Events
  GET  /health        liveness
  GET  /metrics       Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().IntP("port", "p", 0, "Listen port (overrides PORT)")
	cmd.Flags().StringP("engine", "e", "", "Page engine: chrome or static (overrides SCAN_ENGINE)")

	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Port = port
	}

	logger := newLogger(cmd, cfg, false)

	sc, launcher, err := newScanner(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := launcher.Close(); err != nil {
			logger.Error("Failed to close browsers", "error", err)
		}
	}()

	m := metrics.New(launcher.Health)

	// One worker per browser slot; extra requests wait in the queue.
	queue := service.NewQueuedScanner(sc, cfg.BrowserPoolSize, cfg.ScanQueueSize)
	defer queue.Close()
	m.TrackQueue(queue.QueueStats)

	svc := service.New(queue, logger, m)
	streaming := service.NewStreamingService(svc, logger)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := httpapi.NewServer(addr, logger, httpapi.Deps{
		Service:   svc,
		Streaming: streaming,
		Metrics:   m,
		Version:   cfg.ServiceVersion,
	})

	var g run.Group
	g.Add(func() error {
		logger.Info("Starting server", "port", cfg.Port, "engine", cfg.Engine, "version", cfg.ServiceVersion)
		return server.ListenAndServe()
	}, func(error) {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Server forced to shutdown", "error", err)
		}
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))

	err = g.Run()
	if errors.Is(err, run.ErrSignal) || errors.Is(err, http.ErrServerClosed) {
		logger.Info("Server stopped gracefully")
		return nil
	}
	return err
}
