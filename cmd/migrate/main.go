package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/hourbid/pkg/config"
	"github.com/angelmondragon/hourbid/pkg/db"
	pkgerrors "github.com/angelmondragon/hourbid/pkg/errors"
	"github.com/angelmondragon/hourbid/pkg/logger"
	"github.com/angelmondragon/hourbid/pkg/migrate"
)

const serviceName = "migrate"

type options struct {
	cmd      string
	dir      string
	embedded bool
	name     string
	version  string
}

func main() {
	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "migration command: up|down|status|version|create|validate")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.BoolVar(&opts.embedded, "embedded", false, "use the migrations compiled into the binary instead of -dir")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: serviceName})
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(pkgerrors.ExitCode(err))
	}
	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"cmd":      opts.cmd,
		"dir":      opts.dir,
		"embedded": opts.embedded,
		"driver":   cfg.DB.Driver,
	})

	if err := run(ctx, cfg, logg, opts); err != nil {
		logg.Error(ctx, "migration command failed", err)
		os.Exit(pkgerrors.ExitCode(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, opts options) error {
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name, time.Now())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create migration")
		}
		logg.Info(logg.WithField(ctx, "path", path), "migration created")
		return nil
	case "validate":
		var err error
		if opts.embedded {
			err = migrate.ValidateFS(migrate.Embedded, "migrations")
		} else {
			err = migrate.ValidateDir(opts.dir)
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validate migrations")
		}
		logg.Info(ctx, "migration validation passed")
		return nil
	}

	if !cfg.DB.Enabled() {
		return pkgerrors.New(pkgerrors.CodeValidation, "HOURBID_DB_DSN is required for "+opts.cmd)
	}
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open database")
	}
	defer dbClient.Close()
	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sql handle")
	}

	if err := apply(ctx, sqlDB, dbClient.Driver(), opts); err != nil {
		return err
	}
	logg.Info(ctx, "migration command complete")
	return nil
}

func apply(ctx context.Context, sqlDB *sql.DB, driver string, opts options) error {
	switch opts.cmd {
	case "up", "down", "status":
		var err error
		if opts.embedded {
			err = migrate.RunEmbedded(ctx, sqlDB, driver, opts.cmd)
		} else {
			err = migrate.Run(ctx, sqlDB, driver, opts.dir, opts.cmd)
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "goose "+opts.cmd)
		}
		return nil
	case "version":
		if opts.version == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "missing -version for version command")
		}
		if err := migrate.MigrateToVersion(ctx, sqlDB, driver, opts.dir, opts.version); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "goose version")
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown -cmd value: "+opts.cmd)
	}
}
