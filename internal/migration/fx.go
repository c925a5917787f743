package migration

import (
	"github.com/stegashield/stegashield/internal/config"
	"github.com/stegashield/stegashield/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}

		if err := RunMigrations(sqlDB); err != nil {
			return err
		}

		if err := seed.EnsureDefaultPlans(conn); err != nil {
			return err
		}
		if cfg.Bootstrap.EnsureAdminUser {
			return seed.EnsureAdminUser(conn)
		}
		return nil
	}),
)
