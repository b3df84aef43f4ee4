package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/idleworks/tycoon/internal/api"
	"github.com/idleworks/tycoon/internal/engine"
	"github.com/idleworks/tycoon/internal/network"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the simulation server",
	Long: `Start the real-time ticker, the HTTP API and the WebSocket hub.
The stored session is restored on start and saved again on shutdown.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	log.Info("starting tycoon server", "addr", cfg.Server.Addr)

	a, err := newApp(cfg, log, true)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := a.engine.Load(ctx); err != nil {
		return errors.Wrap(err, "restore session")
	}

	ticker := engine.NewTicker(a.engine, log, engine.TickerOptions{
		Rate:          cfg.Simulation.TickRate,
		Delta:         cfg.Simulation.Delta,
		AutosaveEvery: cfg.Simulation.AutosaveEvery,
	})
	tickerDone := make(chan struct{})
	go func() {
		defer close(tickerDone)
		ticker.Start(ctx)
	}()

	hub := network.NewHub(a.engine, a.shop, log)
	go hub.Run(ctx)
	hub.StartPublisher(ctx, cfg.Server.PushInterval)

	srv := api.NewServer(a.engine, a.shop, a.reporter, log)
	srv.SetWebSocket(hub)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		log.Info("shutdown signal received", "signal", sig.String())
	case err := <-serveErr:
		if err != nil {
			log.Error("http server failed", "error", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown incomplete", "error", err)
	}

	// Cancelling the context makes the ticker run its final saving tick.
	cancel()
	select {
	case <-tickerDone:
	case <-shutdownCtx.Done():
		log.Warn("ticker did not stop before the shutdown deadline")
	}

	log.Info("server stopped", "tick", a.engine.CurrentTick(), "money", a.engine.Balance())
	return nil
}
