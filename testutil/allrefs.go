package testutil

import (
	"context"
	"sort"
	"testing"
	"testing/quick"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/bobg/rs"
)

// AllRefs writes a random set of random blobs to an empty store
// and makes sure that the right set of refs comes back in a call to ListRefs,
// both from the beginning and from a midpoint,
// and that Contains reports each of them present.
func AllRefs(ctx context.Context, t *testing.T, storeFactory func() rs.Store) {
	if err := quick.Check(allRefsHelper(ctx, t, storeFactory), nil); err != nil {
		t.Error(err)
	}
}

func allRefsHelper(ctx context.Context, t *testing.T, storeFactory func() rs.Store) func([]rs.Blob) bool {
	return func(blobs []rs.Blob) bool {
		var (
			store = storeFactory()
			want  []rs.Ref
		)
		for _, blob := range blobs {
			ref, added, err := store.Put(ctx, blob)
			if err != nil {
				t.Fatal(err)
			}
			if added {
				want = append(want, ref)
			}
		}
		var got []rs.Ref
		err := store.ListRefs(ctx, rs.Zero, func(r rs.Ref) error {
			got = append(got, r)
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}

		sort.Slice(want, func(i, j int) bool { return want[i].Less(want[j]) })
		sort.Slice(got, func(i, j int) bool { return got[i].Less(got[j]) })

		if diff := cmp.Diff(want, got); diff != "" {
			t.Logf("mismatch (-want +got):\n%s", diff)
			return false
		}

		if len(want) > 0 {
			// Starting at an existing ref must produce exactly the refs after it.
			mid := len(want) / 2
			var tail []rs.Ref
			err = store.ListRefs(ctx, want[mid], func(r rs.Ref) error {
				tail = append(tail, r)
				return nil
			})
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(want[mid+1:], tail, cmpopts.EquateEmpty()); diff != "" {
				t.Logf("tail mismatch starting after %s (-want +got):\n%s", want[mid], diff)
				return false
			}
		}

		for _, ref := range want {
			ok, err := store.Contains(ctx, ref)
			if err != nil {
				t.Fatal(err)
			}
			if !ok {
				t.Logf("store does not contain %s", ref)
				return false
			}
		}

		return true
	}
}
