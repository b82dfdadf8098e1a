package database

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sandeepkv93/storefront-admin-api/internal/domain"
	"github.com/sandeepkv93/storefront-admin-api/internal/observability"
)

// Models lists every table the API owns, in dependency order.
func Models() []any {
	return []any{
		&domain.User{},
		&domain.AccessToken{},
		&domain.Role{},
		&domain.Slider{},
	}
}

func Migrate(db *gorm.DB) error {
	start := time.Now()
	defer func() {
		observability.RecordDatabaseStartupDuration(context.Background(), "migrate", time.Since(start))
	}()
	if err := db.AutoMigrate(Models()...); err != nil {
		observability.RecordDatabaseStartupEvent(context.Background(), "migrate", "error")
		return err
	}
	observability.RecordDatabaseStartupEvent(context.Background(), "migrate", "success")
	return nil
}

// PendingModels returns the names of tables that do not exist yet.
func PendingModels(db *gorm.DB) []string {
	var pending []string
	m := db.Migrator()
	for _, model := range Models() {
		if !m.HasTable(model) {
			stmt := &gorm.Statement{DB: db}
			if err := stmt.Parse(model); err == nil {
				pending = append(pending, stmt.Schema.Table)
			}
		}
	}
	return pending
}
