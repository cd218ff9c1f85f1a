package pg

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/bobg/rs/testutil"
)

func TestStore(t *testing.T) {
	withStore(t, func(ctx context.Context, store *Store) {
		data := testutil.RandBytes(4, 1<<20)
		testutil.ReadWrite(ctx, t, store, data)
	})
}

func TestTags(t *testing.T) {
	withStore(t, func(ctx context.Context, store *Store) {
		testutil.Tags(ctx, t, store)
	})
}

func TestHistory(t *testing.T) {
	withStore(t, func(ctx context.Context, store *Store) {
		testutil.History(ctx, t, store)
	})
}

const connVar = "RS_PG_TESTING_CONN"

func withStore(t *testing.T, f func(context.Context, *Store)) {
	connstr := os.Getenv(connVar)
	if connstr == "" {
		t.Skipf("to run %s, set %s to a valid Postgresql connection string", t.Name(), connVar)
	}

	db, err := sql.Open("postgres", connstr)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	ctx := context.Background()
	store, err := New(ctx, db)
	if err != nil {
		t.Fatal(err)
	}

	// The connection string names a dedicated testing database.
	_, err = db.ExecContext(ctx, `TRUNCATE blobs, tags`)
	if err != nil {
		t.Fatal(err)
	}

	f(ctx, store)
}
