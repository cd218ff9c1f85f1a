package sqlite3

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/bobg/rs"
	"github.com/bobg/rs/testutil"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(ctx, t)
	data := testutil.RandBytes(3, 1<<20)
	testutil.ReadWrite(ctx, t, s, data)
}

func TestAllRefs(t *testing.T) {
	ctx := context.Background()
	testutil.AllRefs(ctx, t, func() rs.Store {
		return newTestStore(ctx, t)
	})
}

func TestTags(t *testing.T) {
	ctx := context.Background()
	testutil.Tags(ctx, t, newTestStore(ctx, t))
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	testutil.History(ctx, t, newTestStore(ctx, t))
}

func newTestStore(ctx context.Context, t *testing.T) *Store {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "rs.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	s, err := New(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	return s
}
