package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const migrationVersionLayout = "20060102150405"

var migrationNameRe = regexp.MustCompile(`[^a-z0-9]+`)

const migrationStub = `-- +goose Up
-- +goose StatementBegin
-- %[1]s
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- rollback %[1]s
-- +goose StatementEnd
`

// CreateSQLMigration writes an empty goose migration stub named
// <dir>/<YYYYMMDDHHMMSS>_<name>.sql and returns its path. The stub satisfies
// ValidateDir. It refuses to overwrite an existing file.
func CreateSQLMigration(dir string, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	safe := sanitizeMigrationName(name)
	if safe == "" {
		return "", fmt.Errorf("migration name %q is empty after sanitizing", name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	version := time.Now().UTC().Format(migrationVersionLayout)
	fullpath := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", version, safe))

	f, err := os.OpenFile(fullpath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return "", fmt.Errorf("migration already exists: %s", fullpath)
		}
		return "", fmt.Errorf("create migration %q: %w", fullpath, err)
	}

	if _, err := fmt.Fprintf(f, migrationStub, safe); err != nil {
		f.Close()
		return "", fmt.Errorf("write migration %q: %w", fullpath, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close migration %q: %w", fullpath, err)
	}

	return fullpath, nil
}

// sanitizeMigrationName lowercases the name and collapses every run of
// characters outside [a-z0-9] into a single underscore, so the result fits
// the filename pattern ValidateDir enforces.
func sanitizeMigrationName(name string) string {
	safe := strings.ToLower(strings.TrimSpace(name))
	safe = migrationNameRe.ReplaceAllString(safe, "_")
	return strings.Trim(safe, "_")
}
