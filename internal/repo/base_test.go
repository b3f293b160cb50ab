package repo

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type widget struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:repo_"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&widget{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return conn
}

func TestNewBaseStoresConnection(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	if base.db != db {
		t.Fatalf("expected base db to match provided connection")
	}
}

func TestBaseDB_BindsContext(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	withCtx := base.DB(ctx)

	if withCtx == nil {
		t.Fatalf("expected non-nil DB when context provided")
	}
	if withCtx.Statement == nil {
		t.Fatalf("expected statement created after WithContext")
	}
	if withCtx.Statement.Context != ctx {
		t.Fatalf("expected context to flow through, got %v", withCtx.Statement.Context)
	}

	withoutCtx := base.DB(nil)
	if withoutCtx != db {
		t.Fatalf("expected nil context to return raw connection")
	}
}

func TestBaseBind(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	if got := base.Bind(nil); got.db != db {
		t.Fatalf("expected nil tx to keep the original connection")
	}
	tx := db.Begin()
	defer tx.Rollback()
	if got := base.Bind(tx); got.db != tx {
		t.Fatalf("expected bound base to use the transaction")
	}
}

func TestFirst(t *testing.T) {
	db := newTestDB(t)
	if err := db.Create(&widget{Name: "sprocket"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	found, err := First[widget](db.Where("name = ?", "sprocket"))
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if found == nil || found.Name != "sprocket" {
		t.Fatalf("unexpected row %+v", found)
	}

	missing, err := First[widget](db.Where("name = ?", "gear"))
	if err != nil {
		t.Fatalf("first missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing row, got %+v", missing)
	}
}
