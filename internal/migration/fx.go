package migration

import (
	alertdomain "github.com/gridsense/wattkeeper/internal/alert/domain"
	"github.com/gridsense/wattkeeper/internal/config"
	readingdomain "github.com/gridsense/wattkeeper/internal/reading/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// sqlite has no migrate driver wired; the schema is small
			// enough for AutoMigrate.
			return conn.AutoMigrate(
				&readingdomain.Reading{},
				&alertdomain.ThresholdConfig{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
