package testutil

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/bobg/rs"
	"github.com/bobg/rs/tag"
)

// Tags exercises the tag methods of a store:
// assignment history via PutTag and GetTag,
// and enumeration via ListTags.
func Tags(ctx context.Context, t *testing.T, store tag.Store) {
	var (
		n1 = "tag1"
		n2 = "tag2"
		n3 = "tag3"

		r1a = rs.Ref{0x1a}
		r1b = rs.Ref{0x1b}
		r2  = rs.Ref{0x2}

		t1 = time.Date(1977, 8, 5, 12, 0, 0, 0, time.UTC)
		t2 = t1.Add(time.Hour)
	)

	err := store.PutTag(ctx, n1, r1a, t1)
	if err != nil {
		t.Fatal(err)
	}
	err = store.PutTag(ctx, n1, r1b, t2)
	if err != nil {
		t.Fatal(err)
	}
	err = store.PutTag(ctx, n2, r2, t1)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name    string
		tm      time.Time
		want    rs.Ref
		wantErr error
	}{
		{name: n1, tm: t1, want: r1a},
		{name: n1, tm: t1.Add(time.Minute), want: r1a},
		{name: n1, tm: t2, want: r1b},
		{name: n1, tm: t2.Add(time.Minute), want: r1b},
		{name: n1, tm: t1.Add(-time.Minute), wantErr: rs.ErrNotFound},
		{name: n1, tm: t2.Add(-time.Minute), want: r1a},

		{name: n2, tm: t1, want: r2},
		{name: n2, tm: t1.Add(time.Minute), want: r2},
		{name: n2, tm: t1.Add(-time.Minute), wantErr: rs.ErrNotFound},

		{name: n3, tm: t2, wantErr: rs.ErrNotFound},
	}

	for i, c := range cases {
		t.Run(fmt.Sprintf("case_%02d", i+1), func(t *testing.T) {
			got, err := store.GetTag(ctx, c.name, c.tm)
			if c.wantErr != nil {
				if !errors.Is(err, c.wantErr) {
					t.Fatalf("got error %v, want %v", err, c.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != c.want {
				t.Fatalf("got %s, want %s", got, c.want)
			}
		})
	}

	type assignment struct {
		Name string
		Ref  rs.Ref
		At   time.Time
	}

	var got []assignment
	err = store.ListTags(ctx, "", func(name string, ref rs.Ref, at time.Time) error {
		got = append(got, assignment{Name: name, Ref: ref, At: at})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []assignment{
		{Name: n1, Ref: r1a, At: t1},
		{Name: n1, Ref: r1b, At: t2},
		{Name: n2, Ref: r2, At: t1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ListTags mismatch (-want +got):\n%s", diff)
	}

	got = nil
	err = store.ListTags(ctx, n1, func(name string, ref rs.Ref, at time.Time) error {
		got = append(got, assignment{Name: name, Ref: ref, At: at})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want[2:], got); diff != "" {
		t.Errorf("ListTags mismatch starting after %s (-want +got):\n%s", n1, diff)
	}
}
