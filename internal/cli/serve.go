package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcpdepot/mcpdepot/internal/config"
	"github.com/mcpdepot/mcpdepot/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog over HTTP",
	Long: `Run the local HTTP API.

The server binds to the configured listen address (127.0.0.1:8765 by
default) and shuts down cleanly on SIGINT/SIGTERM.

Examples:
  mcpdepot serve
  mcpdepot serve --listen 127.0.0.1:9000`,
	RunE: runServe,
}

var serveListen string

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	listen := cfg.Listen
	if serveListen != "" {
		listen = serveListen
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	srv := server.NewServer(listen, st, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
