package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sandeepkv93/storefront-admin-api/internal/domain"
	"github.com/sandeepkv93/storefront-admin-api/internal/observability"
	"github.com/sandeepkv93/storefront-admin-api/internal/security"
)

type BootstrapAdmin struct {
	Name     string
	Email    string
	Password string
}

// SubdomainBackfiller assigns subdomains to clients created before
// assignment was part of registration.
type SubdomainBackfiller interface {
	Backfill(ctx context.Context) (int, error)
}

type SeedReport struct {
	CreatedAdmin         bool `json:"created_admin"`
	PromotedAdmin        bool `json:"promoted_admin"`
	BackfilledSubdomains int  `json:"backfilled_subdomains"`
	Noop                 bool `json:"noop"`
}

func Seed(ctx context.Context, db *gorm.DB, admin BootstrapAdmin, backfill SubdomainBackfiller) error {
	_, err := SeedSync(ctx, db, admin, backfill)
	return err
}

// SeedSync makes sure the bootstrap administrator exists and every client has
// a subdomain. Running it twice changes nothing the second time.
func SeedSync(ctx context.Context, db *gorm.DB, admin BootstrapAdmin, backfill SubdomainBackfiller) (*SeedReport, error) {
	start := time.Now()
	defer func() {
		observability.RecordDatabaseStartupDuration(ctx, "seed", time.Since(start))
	}()

	report := &SeedReport{}
	if err := seedAdmin(ctx, db, admin, report); err != nil {
		observability.RecordDatabaseStartupEvent(ctx, "seed", "error")
		return nil, err
	}
	if backfill != nil {
		n, err := backfill.Backfill(ctx)
		if err != nil {
			observability.RecordDatabaseStartupEvent(ctx, "seed", "error")
			return nil, fmt.Errorf("backfill subdomains: %w", err)
		}
		report.BackfilledSubdomains = n
	}
	report.Noop = !report.CreatedAdmin && !report.PromotedAdmin && report.BackfilledSubdomains == 0
	observability.RecordDatabaseStartupEvent(ctx, "seed", "success")
	return report, nil
}

func seedAdmin(ctx context.Context, db *gorm.DB, admin BootstrapAdmin, report *SeedReport) error {
	email := strings.TrimSpace(strings.ToLower(admin.Email))
	if email == "" {
		return nil
	}
	var u domain.User
	err := db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	switch {
	case err == nil:
		if u.Role == domain.RoleAdministrator {
			return nil
		}
		if err := db.WithContext(ctx).Model(&u).Update("role", domain.RoleAdministrator).Error; err != nil {
			return fmt.Errorf("promote bootstrap admin: %w", err)
		}
		report.PromotedAdmin = true
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	if admin.Password == "" {
		return errors.New("bootstrap admin password is required to create the account")
	}
	hash, err := security.HashPassword(admin.Password)
	if err != nil {
		return err
	}
	name := strings.TrimSpace(admin.Name)
	if name == "" {
		name = "Administrator"
	}
	u = domain.User{Name: name, Email: email, PasswordHash: hash, Role: domain.RoleAdministrator}
	if err := db.WithContext(ctx).Create(&u).Error; err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}
	report.CreatedAdmin = true
	return nil
}

// PlanSeed reports what SeedSync would change without writing anything.
func PlanSeed(ctx context.Context, db *gorm.DB, admin BootstrapAdmin) (*SeedReport, error) {
	report := &SeedReport{}
	if email := strings.TrimSpace(strings.ToLower(admin.Email)); email != "" {
		var u domain.User
		err := db.WithContext(ctx).Where("email = ?", email).First(&u).Error
		switch {
		case err == nil:
			report.PromotedAdmin = u.Role != domain.RoleAdministrator
		case errors.Is(err, gorm.ErrRecordNotFound):
			report.CreatedAdmin = true
		default:
			return nil, err
		}
	}
	var missing int64
	if err := db.WithContext(ctx).Model(&domain.User{}).
		Where("role = ? AND subdomain IS NULL", domain.RoleClient).
		Count(&missing).Error; err != nil {
		return nil, err
	}
	report.BackfilledSubdomains = int(missing)
	report.Noop = !report.CreatedAdmin && !report.PromotedAdmin && report.BackfilledSubdomains == 0
	return report, nil
}
