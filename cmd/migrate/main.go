package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
)

// options holds the parsed command line.
type options struct {
	cmd     string
	dir     string
	name    string
	version string

	// skipSchema limits validate to file layout checks.
	skipSchema bool
}

// offline commands run without a database connection.
var offline = map[string]bool{"create": true, "validate": true}

var online = map[string]bool{"up": true, "down": true, "status": true, "version": true}

func main() {
	_ = godotenv.Load()

	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if offline[opts.cmd] {
		if err := runOffline(opts, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := runOnline(context.Background(), opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseArgs(args []string, errOut io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&opts.cmd, "cmd", "up", "migration command: up|down|status|version|create|validate")
	fs.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	fs.StringVar(&opts.name, "name", "", "migration name (for create)")
	fs.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	fs.BoolVar(&opts.skipSchema, "skip-schema", false, "validate file layout only, without the required constraint check")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	switch {
	case !offline[opts.cmd] && !online[opts.cmd]:
		return options{}, fmt.Errorf("unknown -cmd value: %s", opts.cmd)
	case opts.cmd == "create" && opts.name == "":
		return options{}, errors.New("missing -name for create")
	case opts.cmd == "version" && opts.version == "":
		return options{}, errors.New("missing -version for version command")
	}
	return opts, nil
}

func runOffline(opts options, out io.Writer) error {
	switch opts.cmd {
	case "create":
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return fmt.Errorf("failed to create migration: %w", err)
		}
		fmt.Fprintln(out, "created migration:", path)
	case "validate":
		check := func(dir string) error { return migrate.ValidateSchema(dir, migrate.RequiredConstraints) }
		if opts.skipSchema {
			check = migrate.ValidateDir
		}
		if err := check(opts.dir); err != nil {
			return fmt.Errorf("migration validation failed: %w", err)
		}
		fmt.Fprintln(out, "migration validation passed")
	}
	return nil
}

func runOnline(ctx context.Context, opts options) (err error) {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.ConsoleLogs(),
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env": cfg.App.Env,
		"cmd": opts.cmd,
		"dir": opts.dir,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if closeErr := dbClient.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("sql database: %w", err)
	}

	logg.Info(ctx, "migrate.start")
	if opts.cmd == "version" {
		err = migrate.MigrateToVersion(ctx, sqlDB, opts.dir, opts.version)
	} else {
		err = migrate.Run(ctx, sqlDB, opts.dir, opts.cmd)
	}
	if err != nil {
		return fmt.Errorf("goose %s failed: %w", opts.cmd, err)
	}
	logg.Info(ctx, "migrate.complete")
	return nil
}
