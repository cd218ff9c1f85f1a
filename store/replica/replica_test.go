package replica

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/bobg/rs"
	"github.com/bobg/rs/store/mem"
	"github.com/bobg/rs/testutil"
)

func TestReplicaSets(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		m1 = mem.New()
		m2 = mem.New()
		s  = New(ctx, []rs.Store{m1, m2}, nil, 1)
	)

	ref1, _, err := m1.Put(ctx, rs.Blob("foo"))
	if err != nil {
		t.Fatal(err)
	}
	ref2, _, err := m2.Put(ctx, rs.Blob("bar"))
	if err != nil {
		t.Fatal(err)
	}
	ref3, _, err := s.Put(ctx, rs.Blob("baz"))
	if err != nil {
		t.Fatal(err)
	}

	checkReplica(ctx, t, "m1", m1, ref1, ref3)
	checkReplica(ctx, t, "m2", m2, ref2, ref3)
	checkReplica(ctx, t, "replica", s, ref1, ref2, ref3)

	for _, ref := range []rs.Ref{ref1, ref2, ref3} {
		ok, err := s.Contains(ctx, ref)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Errorf("replica does not contain %s", ref)
		}
	}
	ok, err := s.Contains(ctx, rs.Ref{0xff})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("replica claims to contain an absent ref")
	}
}

func checkReplica(ctx context.Context, t *testing.T, name string, s rs.Store, want ...rs.Ref) {
	t.Run(name, func(t *testing.T) {
		var got []rs.Ref
		err := s.ListRefs(ctx, rs.Zero, func(r rs.Ref) error {
			got = append(got, r)
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		sort.Slice(want, func(i, j int) bool { return want[i].Less(want[j]) })
		sort.Slice(got, func(i, j int) bool { return got[i].Less(got[j]) })
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestAllRefs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	testutil.AllRefs(ctx, t, func() rs.Store {
		var (
			m1 = mem.New()
			m2 = mem.New()
		)
		return New(ctx, []rs.Store{m1, m2}, nil, 1)
	})
}

func TestReadWrite(t *testing.T) {
	data := testutil.RandBytes(8, 1<<20)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		m1 = mem.New()
		m2 = mem.New()
		s  = New(ctx, []rs.Store{m1, m2}, nil, 1)
	)

	testutil.ReadWrite(ctx, t, s, data)
}

func TestAsyncReplica(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		m1 = mem.New()
		m2 = mem.New()
		s  = New(ctx, []rs.Store{m1}, []rs.Store{m2}, 10)
	)

	ref, _, err := s.Put(ctx, rs.Blob("quux"))
	if err != nil {
		t.Fatal(err)
	}

	// The write to m2 happens asynchronously. Wait for it to land.
	deadline := time.Now().Add(5 * time.Second)
	for {
		ok, err := m2.Contains(ctx, ref)
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("blob did not reach the async replica")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
