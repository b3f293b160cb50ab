package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/hydrus-backend/pkg/config"
	"github.com/angelmondragon/hydrus-backend/pkg/db"
	"github.com/angelmondragon/hydrus-backend/pkg/logger"
)

// autoRunReason explains why a process should migrate on boot, or returns ""
// when migrations are left to cmd/migrate.
func autoRunReason(cfg *config.Config) string {
	switch {
	case cfg.DB.IsSQLite():
		return "sqlite"
	case cfg.App.IsDev() && cfg.FeatureFlags.AutoMigrate:
		return "dev_auto_migrate"
	default:
		return ""
	}
}

// MaybeRunDev applies the embedded migrations for local sqlite files and for
// dev environments that opted in with HYDRUS_AUTO_MIGRATE.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	reason := autoRunReason(cfg)
	if reason == "" {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	dialect := DialectFor(cfg.DB.Driver)
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dialect": dialect, "reason": reason})
	results, err := ApplyEmbedded(ctx, sqlDB, dialect)
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	logg.Info(logg.WithField(ctx, "applied", len(results)), "embedded migrations applied")
	return nil
}
