// Package storetest opens throwaway, fully migrated stores for tests.
package storetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/pmcloud/internal/server/repositories/repomanager"
)

// SQLite returns a migrated SQLite-backed manager in t's temp dir. It is
// closed when the test ends.
func SQLite(t testing.TB) *repomanager.SQLRepositoryManager {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "vault.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	m, err := repomanager.NewSQLiteRepositoryManager(dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })

	if err := m.RunMigrations(context.Background()); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return m
}
