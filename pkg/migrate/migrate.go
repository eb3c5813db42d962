package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/pressly/goose/v3"
)

const DefaultDir = "pkg/migrate/migrations"

// Command is a goose command that needs a live connection.
type Command string

const (
	CommandUp     Command = "up"
	CommandDown   Command = "down"
	CommandStatus Command = "status"
	CommandRedo   Command = "redo"
)

func (c Command) valid() bool {
	switch c {
	case CommandUp, CommandDown, CommandStatus, CommandRedo:
		return true
	}
	return false
}

// The SQL files use Postgres types and partial indexes; SQLite goes through
// ApplySQLiteSchema instead.
func postgresDialect() error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

// Run executes cmd against the migrations in dir.
func Run(ctx context.Context, db *sql.DB, dir string, cmd Command) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	if !cmd.valid() {
		return fmt.Errorf("unsupported migrate command %q", cmd)
	}
	if err := postgresDialect(); err != nil {
		return err
	}
	if err := goose.RunContext(ctx, string(cmd), db, dir); err != nil {
		return fmt.Errorf("goose %s: %w", cmd, err)
	}
	return nil
}

// MigrateToVersion moves the schema up or down until it sits at target.
func MigrateToVersion(ctx context.Context, db *sql.DB, dir string, target string) error {
	version, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", target, err)
	}
	if err := postgresDialect(); err != nil {
		return err
	}
	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current < version:
		err = goose.UpToContext(ctx, db, dir, version)
	case current > version:
		err = goose.DownToContext(ctx, db, dir, version)
	}
	if err != nil {
		return fmt.Errorf("goose migrate %d -> %d: %w", current, version, err)
	}
	return nil
}

// Pending lists migration files in dir newer than the applied version.
func Pending(ctx context.Context, db *sql.DB, dir string) ([]string, error) {
	files, err := listMigrations(dir)
	if err != nil {
		return nil, err
	}
	if err := postgresDialect(); err != nil {
		return nil, err
	}
	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("get db version: %w", err)
	}
	return pendingAfter(files, current), nil
}

func pendingAfter(files []migrationFile, current int64) []string {
	var out []string
	for _, f := range files {
		v, err := strconv.ParseInt(f.version, 10, 64)
		if err != nil || v <= current {
			continue
		}
		out = append(out, f.version+"_"+f.name)
	}
	return out
}
