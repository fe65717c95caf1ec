package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/biscenic/commerce-backend/pkg/migrate"
)

func TestOrdersMigrationContainsSchemas(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_orders_table.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no orders migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE TABLE IF NOT EXISTS order_line_items",
		"CREATE UNIQUE INDEX IF NOT EXISTS uq_orders_gateway_tx_ref",
		"WHERE transaction_reference IS NOT NULL",
		"NUMERIC(14,2)",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
