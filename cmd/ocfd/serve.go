package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ocfkit/ocf/internal/core/observability/log"
	"github.com/ocfkit/ocf/internal/injector"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the engine until interrupted",
	Long: `Run the engine: bind the OSC input, optionally the feedback sender and
the websocket panel, enable every configured controllable and tick until
SIGINT or SIGTERM. Last used presets are recorded on shutdown.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	app, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	logger := app.Logger
	defer func() { _ = logger.Sync() }()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting engine",
		log.String("osc", cfg.OSC.Listen),
		log.String("root", cfg.OSC.RootAddress),
		log.String("scene", cfg.Scene))
	return app.Host.Run(ctx)
}
