package store_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bobg/rs"
	. "github.com/bobg/rs/store"
	"github.com/bobg/rs/store/mem"
)

func TestSync(t *testing.T) {
	const text = `abc def ghi jkl mno pqr stu`

	var (
		ctx    = context.Background()
		words  = strings.Fields(text)
		stores = make([]rs.Store, 0, len(words))
	)

	// Store i holds every word except word i.
	for i := range words {
		s := mem.New()
		stores = append(stores, s)
		for j, word := range words {
			if i == j {
				continue
			}

			_, _, err := s.Put(ctx, rs.Blob(word))
			if err != nil {
				t.Fatal(err)
			}
		}
	}

	err := Sync(ctx, stores)
	if err != nil {
		t.Fatal(err)
	}

	var want []rs.Ref
	err = stores[0].ListRefs(ctx, rs.Zero, func(ref rs.Ref) error {
		want = append(want, ref)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(want) != len(words) {
		t.Errorf("store 0 has %d refs, want %d", len(want), len(words))
	}

	for i := 1; i < len(stores); i++ {
		var got []rs.Ref
		err = stores[i].ListRefs(ctx, rs.Zero, func(ref rs.Ref) error {
			got = append(got, ref)
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("store %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestSyncDisjoint(t *testing.T) {
	ctx := context.Background()

	m1, m2 := mem.New(), mem.New()
	ref1, _, err := m1.Put(ctx, rs.Blob("only in store 1"))
	if err != nil {
		t.Fatal(err)
	}
	ref2, _, err := m2.Put(ctx, rs.Blob("only in store 2"))
	if err != nil {
		t.Fatal(err)
	}

	err = Sync(ctx, []rs.Store{m1, m2})
	if err != nil {
		t.Fatal(err)
	}

	for i, s := range []rs.Store{m1, m2} {
		for _, ref := range []rs.Ref{ref1, ref2} {
			ok, err := s.Contains(ctx, ref)
			if err != nil {
				t.Fatal(err)
			}
			if !ok {
				t.Errorf("store %d is missing %s after sync", i+1, ref)
			}
		}
	}
}
