package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/hydrus-backend/pkg/config"
	"github.com/angelmondragon/hydrus-backend/pkg/db"
	"github.com/angelmondragon/hydrus-backend/pkg/logger"
	"github.com/angelmondragon/hydrus-backend/pkg/migrate"
)

const usage = `usage: migrate <command> [flags]

commands:
  up | down | status   run goose against -dir
  to -version V        migrate up or down to version V
  embedded             apply the migrations compiled into the binary
  create -name N       write an empty migration into -dir
  validate             check migration files in -dir (compiled set when -dir is empty)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command := os.Args[1]

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	dir := fs.String("dir", migrate.DefaultDir, "goose migrations directory")
	name := fs.String("name", "", "migration name for create")
	version := fs.String("version", "", "target version (YYYYMMDDHHMMSS) for to")
	_ = fs.Parse(os.Args[2:])

	_ = godotenv.Load()
	logg := logger.New(logger.Options{ServiceName: "hydrus-migrate"})
	ctx := logg.WithFields(context.Background(), map[string]any{"command": command, "dir": *dir})

	if err := run(ctx, logg, command, *dir, *name, *version); err != nil {
		logg.Error(ctx, "migrate failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logg *logger.Logger, command, dir, name, version string) error {
	// file-only commands need neither config nor a database
	switch command {
	case "create":
		if name == "" {
			return errors.New("create requires -name")
		}
		path, err := migrate.CreateSQLMigration(dir, name)
		if err != nil {
			return err
		}
		logg.Info(logg.WithField(ctx, "path", path), "migration created")
		return nil
	case "validate":
		validate := func() error { return migrate.ValidateDir(dir) }
		if dir == "" {
			validate = migrate.ValidateEmbedded
		}
		if err := validate(); err != nil {
			return err
		}
		logg.Info(ctx, "migrations valid")
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg = logger.New(logger.Options{
		ServiceName: "hydrus-migrate",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": cfg.DB.Driver})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer client.Close()
	sqlDB, err := client.DB().DB()
	if err != nil {
		return err
	}
	dialect := migrate.DialectFor(cfg.DB.Driver)

	switch command {
	case "up", "down", "status":
		return migrate.Run(ctx, sqlDB, dialect, dir, command)
	case "to":
		if version == "" {
			return errors.New("to requires -version")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, dialect, dir, version)
	case "embedded":
		results, err := migrate.ApplyEmbedded(ctx, sqlDB, dialect)
		if err != nil {
			return err
		}
		logg.Info(logg.WithField(ctx, "applied", len(results)), "embedded migrations applied")
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}
