package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/lyceum/config"
	"github.com/hupe1980/lyceum/server"
)

const shutdownTimeout = 10 * time.Second

var servePort string

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}

	cmd.Flags().StringVarP(&servePort, "port", "p", "", "Listen port (overrides configuration)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, lyc, logger, sync, err := bootstrap(ctx, func(cfg *config.Config) {
		if servePort != "" {
			cfg.Server.Port = servePort
		}
	})
	if err != nil {
		return err
	}
	defer func() { _ = sync() }()

	srv := server.New(lyc, func(o *server.Options) {
		o.Port = cfg.Server.Port
		if cfg.Server.BodyLimit > 0 {
			o.BodyLimit = cfg.Server.BodyLimit
		}
		o.Logger = logger
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}
