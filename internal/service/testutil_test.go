package service

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gymtrack/internal/db"
	"github.com/gymtrack/internal/repository"
)

var testDBSeq atomic.Int64

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:service-%d-%d?mode=memory&cache=shared", time.Now().UnixNano(), testDBSeq.Add(1))
	gdb, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close(gdb)
	})

	return repository.NewStore(gdb)
}

func newSeededStore(t *testing.T) *repository.Store {
	t.Helper()

	store := newTestStore(t)
	if _, err := db.SeedCatalog(store.DB()); err != nil {
		t.Fatalf("failed to seed catalog: %v", err)
	}
	return store
}

func countRows(t *testing.T, store *repository.Store, model any) int64 {
	t.Helper()

	var count int64
	if err := store.DB().Model(model).Count(&count).Error; err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return count
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}
