// Package dbtest opens throwaway in-memory databases for tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/archivio-maledetto/archivio/archivio/database"
	"github.com/archivio-maledetto/archivio/archivio/database/repositories"
)

// New returns an initialised in-memory SQLite database closed on test cleanup.
func New(t testing.TB) *database.DB {
	t.Helper()
	ctx := context.Background()

	db, err := database.NewSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(db.Close)

	if err := db.InitializeSchema(ctx); err != nil {
		t.Fatalf("initialize schema: %v", err)
	}
	return db
}

// NewStore returns a repository store over a fresh test database.
func NewStore(t testing.TB) *repositories.Store {
	t.Helper()
	return repositories.NewStore(New(t).BunDB())
}
