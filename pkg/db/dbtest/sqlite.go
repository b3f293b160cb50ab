// Package dbtest opens migrated in-memory sqlite databases for package tests.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/hydrus-backend/pkg/config"
	"github.com/angelmondragon/hydrus-backend/pkg/db"
	"github.com/angelmondragon/hydrus-backend/pkg/migrate"
)

// Open returns a gorm connection to a private in-memory sqlite database with
// every embedded migration applied. The database is dropped when the test ends.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", name)
	conn, err := gorm.Open(sqlite.Open(dsn), db.GormConfig(nil, 0))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if _, err := migrate.ApplyEmbedded(context.Background(), sqlDB, migrate.DialectFor(config.DBDriverSQLite)); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return conn
}

// Client wraps Open in a db.Client so services can run real transactions.
func Client(t testing.TB) *db.Client {
	t.Helper()
	return db.NewFromConn(Open(t))
}
