package main

import (
	"context"
	"fmt"

	"github.com/david/opportunity-sync/internal/config"
	"github.com/david/opportunity-sync/internal/db"
	"github.com/david/opportunity-sync/internal/logging"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type app struct {
	cfg    config.Config
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var logLevel string

	root := &cobra.Command{
		Use:   "recon",
		Short: "Reconcile quote, job and request exports into opportunities",
		Long: `recon imports the Quotes, Jobs and Requests exports of the field-service
platform, groups quotes into opportunities and stores the result.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.cfg = config.Load()
			if logLevel != "" {
				a.cfg.LogLevel = logLevel
			}
			a.logger = logging.Configure(logging.Config{
				Level:  a.cfg.LogLevel,
				Format: "console",
				Output: "stderr",
			})
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	root.AddCommand(
		newImportCmd(a),
		newRunsCmd(a),
		newMigrateCmd(a),
		newTokenCmd(a),
		newVerifyCmd(a),
		newPushCmd(a),
	)
	return root
}

func (a *app) connect(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := db.Connect(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return pool, nil
}
