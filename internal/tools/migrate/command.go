package migrate

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/sandeepkv93/storefront-admin-api/internal/config"
	"github.com/sandeepkv93/storefront-admin-api/internal/database"
	"github.com/sandeepkv93/storefront-admin-api/internal/tools/common"
	"github.com/sandeepkv93/storefront-admin-api/internal/tools/ui"
)

type options struct {
	envFile string
	timeout time.Duration
	ci      bool
}

// action runs against an open database; the pool is closed afterwards.
type action func(ctx context.Context, cfg *config.Config, db *gorm.DB) ([]string, error)

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tooling",
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "operation timeout")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")

	cmd.AddCommand(
		newCommand(opts, "up", "Apply schema migrations", up),
		newCommand(opts, "status", "Report pending tables", status),
		newCommand(opts, "plan", "Show what up would create (dry-run)", plan),
	)
	return cmd
}

func newCommand(opts *options, use, short string, fn action) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			title := "migrate " + use
			details, err := run(opts, title, func(ctx context.Context) ([]string, error) {
				cfg, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				sqlDB, err := db.DB()
				if err != nil {
					return nil, err
				}
				defer func() { _ = sqlDB.Close() }()
				if err := sqlDB.PingContext(ctx); err != nil {
					return nil, fmt.Errorf("db ping: %w", err)
				}
				return fn(ctx, cfg, db)
			})
			if opts.ci {
				common.PrintCIResult(err == nil, title, details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
}

func up(_ context.Context, cfg *config.Config, db *gorm.DB) ([]string, error) {
	pending := database.PendingModels(db)
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	details := []string{"schema migration applied", "service: " + cfg.OTELServiceName}
	if len(pending) > 0 {
		details = append(details, "created tables: "+strings.Join(pending, ", "))
	}
	return details, nil
}

func status(_ context.Context, cfg *config.Config, db *gorm.DB) ([]string, error) {
	state := "migrations: up to date"
	if pending := database.PendingModels(db); len(pending) > 0 {
		state = fmt.Sprintf("migrations: %d pending (%s)", len(pending), strings.Join(pending, ", "))
	}
	return []string{"database reachable", "service: " + cfg.OTELServiceName, state}, nil
}

func plan(_ context.Context, _ *config.Config, db *gorm.DB) ([]string, error) {
	pending := database.PendingModels(db)
	if len(pending) == 0 {
		return []string{"schema up to date, AutoMigrate would only reconcile columns", "no mutation executed in plan mode"}, nil
	}
	return []string{
		"would create tables: " + strings.Join(pending, ", "),
		"no mutation executed in plan mode",
	}, nil
}

func run(opts *options, title string, fn func(context.Context) ([]string, error)) ([]string, error) {
	fn = common.Instrument(title, fn)
	if opts.ci {
		ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
		defer cancel()
		return fn(ctx)
	}
	return ui.Run(title, fn)
}

func loadConfigDB(envFile string) (*config.Config, *gorm.DB, error) {
	if err := common.LoadEnvFile(envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
