package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var (
	sqlFileRe      = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)
	nameSanitizeRe = regexp.MustCompile(`[^a-z0-9_]+`)
)

type migrationFile struct {
	version string
	name    string
	path    string
}

// listMigrations returns the .sql files in dir ordered by version. Any file
// that does not follow YYYYMMDDHHMMSS_name.sql is an error.
func listMigrations(dir string) ([]migrationFile, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	var files []migrationFile
	seen := map[string]string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		m := sqlFileRe.FindStringSubmatch(e.Name())
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", e.Name())
		}
		if prev, ok := seen[m[1]]; ok {
			return nil, fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, e.Name())
		}
		seen[m[1]] = e.Name()
		files = append(files, migrationFile{version: m[1], name: m[2], path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].version < files[j].version })
	return files, nil
}

// ValidateDir checks filenames, version uniqueness and that every migration
// carries a non-empty Up section and a Down section.
func ValidateDir(dir string) error {
	files, err := listMigrations(dir)
	if err != nil {
		return err
	}
	for _, f := range files {
		b, err := os.ReadFile(f.path)
		if err != nil {
			return fmt.Errorf("read file %q: %w", f.path, err)
		}
		txt := string(b)
		upAt := strings.Index(txt, "-- +goose Up")
		downAt := strings.Index(txt, "-- +goose Down")
		switch {
		case upAt < 0:
			return fmt.Errorf("migration %q missing \"-- +goose Up\"", filepath.Base(f.path))
		case downAt < 0:
			return fmt.Errorf("migration %q missing \"-- +goose Down\"", filepath.Base(f.path))
		case downAt < upAt:
			return fmt.Errorf("migration %q declares Down before Up", filepath.Base(f.path))
		}
		if !hasStatement(txt[upAt:downAt]) {
			return fmt.Errorf("migration %q has an empty Up section", filepath.Base(f.path))
		}
	}
	return nil
}

func hasStatement(section string) bool {
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return true
		}
	}
	return false
}

// CreateSQLMigration writes an empty goose migration named after name. The
// version is the current UTC second, bumped past the newest existing file so
// new migrations always apply last.
func CreateSQLMigration(dir string, name string) (string, error) {
	return createSQLMigration(dir, name, time.Now().UTC())
}

func createSQLMigration(dir, name string, now time.Time) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	safe := strings.ToLower(strings.TrimSpace(name))
	safe = nameSanitizeRe.ReplaceAllString(strings.ReplaceAll(safe, " ", "_"), "_")
	safe = strings.Trim(safe, "_")
	if safe == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}
	existing, err := listMigrations(dir)
	if err != nil {
		return "", err
	}

	version := now.Format(versionLayout)
	if n := len(existing); n > 0 && existing[n-1].version >= version {
		latest, err := time.Parse(versionLayout, existing[n-1].version)
		if err != nil {
			return "", fmt.Errorf("parse version %q: %w", existing[n-1].version, err)
		}
		version = latest.Add(time.Second).Format(versionLayout)
	}

	fullpath := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", version, safe))
	body := fmt.Sprintf(`-- +goose Up
-- +goose StatementBegin
SELECT 'up: %[1]s';
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
SELECT 'down: %[1]s';
-- +goose StatementEnd
`, safe)
	if err := os.WriteFile(fullpath, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", fullpath, err)
	}
	return fullpath, nil
}
