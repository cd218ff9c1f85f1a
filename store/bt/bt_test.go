package bt

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"testing"

	"cloud.google.com/go/bigtable"

	"github.com/bobg/rs/testutil"
)

const emulatorVar = "BIGTABLE_EMULATOR_HOST"

// withStore runs f on a Store backed by a fresh table
// in a Cloud Bigtable emulator.
func withStore(t *testing.T, f func(context.Context, *Store)) {
	t.Helper()

	if os.Getenv(emulatorVar) == "" {
		t.Skipf("to run %s, set %s to the host:port of a running Cloud Bigtable emulator", t.Name(), emulatorVar)
	}

	const project, instance = "testproject", "testinstance"

	ctx := context.Background()

	adminClient, err := bigtable.NewAdminClient(ctx, project, instance)
	if err != nil {
		t.Fatal(err)
	}
	defer adminClient.Close()

	var rnd [8]byte
	_, err = rand.Read(rnd[:])
	if err != nil {
		t.Fatal(err)
	}
	tableName := "test" + hex.EncodeToString(rnd[:])

	err = adminClient.CreateTable(ctx, tableName)
	if err != nil {
		t.Fatal(err)
	}
	defer adminClient.DeleteTable(ctx, tableName)

	for _, family := range []string{blobFamily, tagFamily} {
		err = adminClient.CreateColumnFamily(ctx, tableName, family)
		if err != nil {
			t.Fatal(err)
		}
	}

	client, err := bigtable.NewClient(ctx, project, instance)
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	f(ctx, New(client.Open(tableName)))
}

func TestStore(t *testing.T) {
	withStore(t, func(ctx context.Context, s *Store) {
		data := testutil.RandBytes(10, 1<<20)
		testutil.ReadWrite(ctx, t, s, data)
	})
}

func TestTags(t *testing.T) {
	withStore(t, func(ctx context.Context, s *Store) {
		testutil.Tags(ctx, t, s)
	})
}

func TestHistory(t *testing.T) {
	withStore(t, func(ctx context.Context, s *Store) {
		testutil.History(ctx, t, s)
	})
}
