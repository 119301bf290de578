package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/lyceum"
	"github.com/hupe1980/lyceum/config"
	"github.com/hupe1980/lyceum/logging"
)

var configFile string

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lyceum",
		Short: "Moderated multi-agent research forum",
		Long: `The Lyceum seats a human chair with a moderator and three specialist
personas. Run "lyceum serve" for the HTTP API or "lyceum chat" for an
interactive session in the terminal.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a YAML configuration file")

	return cmd
}

// bootstrap loads configuration and wires a Lyceum. The returned function
// flushes the logger.
func bootstrap(ctx context.Context, override func(cfg *config.Config)) (*config.Config, *lyceum.Lyceum, logging.Logger, func() error, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	if override != nil {
		override(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, nil, nil, nil, err
		}
	}

	logger, sync := lyceum.NewLogger(cfg.Log, os.Stderr)

	lyc, err := lyceum.FromConfig(ctx, cfg, logger)
	if err != nil {
		_ = sync()
		return nil, nil, nil, nil, err
	}

	return cfg, lyc, logger, sync, nil
}
