package seed

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/sandeepkv93/storefront-admin-api/internal/config"
	"github.com/sandeepkv93/storefront-admin-api/internal/database"
	"github.com/sandeepkv93/storefront-admin-api/internal/repository"
	"github.com/sandeepkv93/storefront-admin-api/internal/service"
	"github.com/sandeepkv93/storefront-admin-api/internal/tools/common"
	"github.com/sandeepkv93/storefront-admin-api/internal/tools/ui"
)

type options struct {
	envFile             string
	bootstrapAdminEmail string
	ci                  bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "seed", Short: "Database seed tooling"}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().StringVar(&opts.bootstrapAdminEmail, "bootstrap-admin-email", "", "override bootstrap admin email")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newApplyCommand(opts), newDryRunCommand(opts), newBackfillSubdomainsCommand(opts))
	return cmd
}

func newApplyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Create the bootstrap admin and backfill client subdomains",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(opts, "seed apply", func(ctx context.Context) ([]string, error) {
				cfg, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				defer closeDB(db)
				if err := database.Migrate(db); err != nil {
					return nil, err
				}
				report, err := database.SeedSync(ctx, db, bootstrapAdmin(cfg, opts), subdomainService(cfg, db))
				if err != nil {
					return nil, err
				}
				return describe(report, "created", "promoted", "backfilled"), nil
			})
		},
	}
}

func newDryRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dry-run",
		Short: "Show what seeding would do",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(opts, "seed dry-run", func(ctx context.Context) ([]string, error) {
				cfg, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				defer closeDB(db)
				report, err := database.PlanSeed(ctx, db, bootstrapAdmin(cfg, opts))
				if err != nil {
					return nil, err
				}
				return append(describe(report, "would create", "would promote", "would backfill"), "no mutation executed in dry-run mode"), nil
			})
		},
	}
}

func newBackfillSubdomainsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "backfill-subdomains",
		Short: "Assign subdomains to clients that have none",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(opts, "seed backfill-subdomains", func(ctx context.Context) ([]string, error) {
				cfg, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				defer closeDB(db)
				n, err := subdomainService(cfg, db).Backfill(ctx)
				if err != nil {
					return nil, err
				}
				return []string{fmt.Sprintf("backfilled subdomains: %d", n)}, nil
			})
		},
	}
}

func describe(report *database.SeedReport, created, promoted, backfilled string) []string {
	if report.Noop {
		return []string{"nothing to do"}
	}
	var details []string
	if report.CreatedAdmin {
		details = append(details, created+" bootstrap admin")
	}
	if report.PromotedAdmin {
		details = append(details, promoted+" existing user to administrator")
	}
	if report.BackfilledSubdomains > 0 {
		details = append(details, fmt.Sprintf("%s subdomains: %d", backfilled, report.BackfilledSubdomains))
	}
	return details
}

func bootstrapAdmin(cfg *config.Config, opts *options) database.BootstrapAdmin {
	admin := database.BootstrapAdmin{
		Name:     cfg.BootstrapAdminName,
		Email:    cfg.BootstrapAdminEmail,
		Password: cfg.BootstrapAdminPassword,
	}
	if opts.bootstrapAdminEmail != "" {
		admin.Email = opts.bootstrapAdminEmail
	}
	return admin
}

func subdomainService(cfg *config.Config, db *gorm.DB) *service.SubdomainService {
	return service.NewSubdomainService(repository.NewUserRepository(db), cfg.TenantBaseDomain)
}

func execute(opts *options, title string, fn func(context.Context) ([]string, error)) error {
	var (
		details []string
		err     error
	)
	fn = common.Instrument(title, fn)
	if opts.ci {
		details, err = fn(context.Background())
		common.PrintCIResult(err == nil, title, details, err)
	} else {
		details, err = ui.Run(title, fn)
	}
	if err != nil {
		os.Exit(3)
	}
	return nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
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
