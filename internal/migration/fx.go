package migration

import (
	"strings"

	"github.com/smallbiznis/roomledger/internal/config"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// Versioned migrations only target postgres. Other dialects are
		// used for local experiments and tests, which AutoMigrate instead.
		if strings.ToLower(strings.TrimSpace(cfg.DBType)) != "postgres" {
			return nil
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
