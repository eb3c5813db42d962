package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/servicehub-backend/internal/catalog"
	"github.com/angelmondragon/servicehub-backend/pkg/config"
	"github.com/angelmondragon/servicehub-backend/pkg/db"
	"github.com/angelmondragon/servicehub-backend/pkg/logger"
	"github.com/angelmondragon/servicehub-backend/pkg/migrate"
)

type options struct {
	dir     string
	name    string
	version string
}

// offline commands run without a database connection.
var offline = map[string]func(options) error{
	"create": func(o options) error {
		if o.name == "" {
			return errors.New("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(o.dir, o.name)
		if err != nil {
			return err
		}
		fmt.Println("created migration:", path)
		return nil
	},
	"validate": func(o options) error {
		if err := migrate.ValidateDir(o.dir); err != nil {
			return err
		}
		fmt.Println("migration validation passed")
		return nil
	},
}

func main() {
	cmd := flag.String("cmd", "up", "up|down|redo|status|version|pending|create|validate|seed")
	opts := options{}
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&opts.name, "name", "", "migration name (for create)")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	if run, ok := offline[*cmd]; ok {
		if err := run(opts); err != nil {
			fmt.Fprintf(os.Stderr, "%s failed: %v\n", *cmd, err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
		"dir": opts.dir,
	})

	dbClient, err := db.New(ctx, cfg.DB, db.Options{UseSQLite: cfg.FeatureFlags.UseSQLite}, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	if err := runOnline(ctx, logg, dbClient, *cmd, opts); err != nil {
		logg.Error(ctx, "migrate command failed", err)
		os.Exit(1)
	}
}

func runOnline(ctx context.Context, logg *logger.Logger, dbClient *db.Client, cmd string, opts options) error {
	if cmd == "seed" {
		seeder, err := catalog.NewSeeder(dbClient, logg)
		if err != nil {
			return err
		}
		report, err := seeder.Seed(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("seeded %d levels, %d achievements, %d rewards\n", report.Levels, report.Achievements, report.Rewards)
		return nil
	}

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	switch cmd {
	case "version":
		if opts.version == "" {
			return errors.New("missing -version for version command")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, opts.dir, opts.version)
	case "pending":
		return printPending(ctx, sqlDB, opts.dir)
	default:
		return migrate.Run(ctx, sqlDB, opts.dir, migrate.Command(cmd))
	}
}

func printPending(ctx context.Context, sqlDB *sql.DB, dir string) error {
	pending, err := migrate.Pending(ctx, sqlDB, dir)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Println("schema is up to date")
		return nil
	}
	for _, name := range pending {
		fmt.Println("pending:", name)
	}
	return nil
}
