package lru

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/bobg/rs"
	"github.com/bobg/rs/store/mem"
	"github.com/bobg/rs/testutil"
)

func TestStore(t *testing.T) {
	s, err := New(mem.New(), 1000)
	if err != nil {
		t.Fatal(err)
	}
	data := testutil.RandBytes(6, 1<<20)
	testutil.ReadWrite(context.Background(), t, s, data)
}

func TestHistory(t *testing.T) {
	s, err := New(mem.New(), 1000)
	if err != nil {
		t.Fatal(err)
	}
	testutil.History(context.Background(), t, s)
}

func TestGetMulti(t *testing.T) {
	ctx := context.Background()

	m := mem.New()
	s, err := New(m, 10)
	if err != nil {
		t.Fatal(err)
	}

	// b1 goes through the cache, b2 only into the underlying store.
	b1, b2 := rs.Blob("cached"), rs.Blob("uncached")
	r1, _, err := s.Put(ctx, b1)
	if err != nil {
		t.Fatal(err)
	}
	r2, _, err := m.Put(ctx, b2)
	if err != nil {
		t.Fatal(err)
	}
	absent := rs.Ref{0xff}

	got, err := s.GetMulti(ctx, []rs.Ref{r1, r2, absent})
	var multi rs.MultiErr
	if !errors.As(err, &multi) {
		t.Fatalf("got error %v, want a MultiErr", err)
	}
	if len(multi) != 1 || !errors.Is(multi[absent], rs.ErrNotFound) {
		t.Errorf("got MultiErr %v, want ErrNotFound for %s only", multi, absent)
	}
	if len(got) != 2 {
		t.Fatalf("got %d blobs, want 2", len(got))
	}
	if !bytes.Equal(got[r1], b1) {
		t.Errorf("got %s for %s, want %s", got[r1], r1, b1)
	}
	if !bytes.Equal(got[r2], b2) {
		t.Errorf("got %s for %s, want %s", got[r2], r2, b2)
	}

	// b2 is now cached too.
	if !s.c.Contains(r2) {
		t.Error("fetched blob did not land in the cache")
	}
}
