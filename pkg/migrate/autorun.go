package migrate

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/hourbid/pkg/config"
	"github.com/angelmondragon/hourbid/pkg/db"
	"github.com/angelmondragon/hourbid/pkg/logger"
)

// MaybeRun applies the embedded migrations at startup when auto-migrate is
// enabled. It reports whether migrations ran. Production never auto-migrates;
// deploys there run cmd/migrate explicitly.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) (bool, error) {
	if !cfg.FeatureFlags.AutoMigrate || client == nil {
		return false, nil
	}
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": client.Driver()})
	if cfg.App.IsProd() {
		logg.Warn(ctx, "auto-migrate ignored in production")
		return false, nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return false, fmt.Errorf("extracting sql.DB: %w", err)
	}
	if err := RunEmbedded(ctx, sqlDB, client.Driver(), "up"); err != nil {
		return false, err
	}

	version, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return true, fmt.Errorf("reading schema version: %w", err)
	}
	logg.Info(logg.WithField(ctx, "schema_version", version), "history schema migrated")
	return true, nil
}
