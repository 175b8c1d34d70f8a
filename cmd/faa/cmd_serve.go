package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"FAASentinel/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API and Prometheus metrics",
	Long: `Serve the FAA HTTP API:

  POST /api/faa/evaluate        run an evaluation
  POST /api/faa/allocate        build a purchase plan
  GET  /api/exchange-rate       current base-currency rate
  GET  /api/faa/evaluations     recorded history
  GET  /healthz                 liveness and breaker state
  GET  /metrics                 Prometheus metrics`,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config http.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log.SetOutput(os.Stderr)

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.Config.HTTP.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	srv := api.NewServer(a.Service, a.Metrics, a.Guards...).HTTPServer(addr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] HTTP API listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("[INFO] shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
