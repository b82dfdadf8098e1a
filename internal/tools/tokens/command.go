package tokens

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/storefront-admin-api/internal/config"
	"github.com/sandeepkv93/storefront-admin-api/internal/database"
	"github.com/sandeepkv93/storefront-admin-api/internal/repository"
	"github.com/sandeepkv93/storefront-admin-api/internal/security"
	"github.com/sandeepkv93/storefront-admin-api/internal/service"
	"github.com/sandeepkv93/storefront-admin-api/internal/tools/common"
	"github.com/sandeepkv93/storefront-admin-api/internal/tools/ui"
)

type options struct {
	envFile string
	timeout time.Duration
	ci      bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "tokens", Short: "Access token maintenance"}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "operation timeout")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newPruneCommand(opts))
	return cmd
}

func newPruneCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete expired and revoked access tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := run(opts, "tokens prune", func(ctx context.Context) ([]string, error) {
				if err := common.LoadEnvFile(opts.envFile); err != nil {
					return nil, err
				}
				cfg, err := config.Load()
				if err != nil {
					return nil, err
				}
				db, err := database.Open(cfg)
				if err != nil {
					return nil, err
				}
				sqlDB, _ := db.DB()
				defer func() { _ = sqlDB.Close() }()

				svc := service.NewTokenService(repository.NewTokenRepository(db), security.NewTokenHasher(cfg.TokenPepper), cfg.TokenTTL)
				n, err := svc.Prune(ctx)
				if err != nil {
					return nil, err
				}
				return []string{fmt.Sprintf("pruned tokens: %d", n)}, nil
			})
			if opts.ci {
				common.PrintCIResult(err == nil, "tokens prune", details, err)
			}
			if err != nil {
				os.Exit(3)
			}
			return nil
		},
	}
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
