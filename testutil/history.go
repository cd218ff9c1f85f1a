package testutil

import (
	"context"
	"testing"

	"github.com/bobg/rs"
	"github.com/bobg/rs/rev"
	"github.com/bobg/rs/tree"
)

// History builds a small revision history in a store
// and checks that it reads back correctly:
// a chain, a branch, and a merge,
// exercising Create, Get, Parents, TreeOf, and Cut.
//
//	r1 <- r2 <- r3a <- r4
//	        \- r3b -/
func History(ctx context.Context, t *testing.T, store rs.Store) {
	var (
		trees = tree.NewStore(store)
		revs  = rev.New(store, trees)
	)

	blobRef, _, err := store.Put(ctx, rs.Blob("the quick brown fox"))
	if err != nil {
		t.Fatal(err)
	}

	tr := new(tree.Tree)
	tr.Add(tree.Entry{Name: "fox.txt", Ref: blobRef, Mode: 0644})
	treeRef, _, err := trees.Put(ctx, tr)
	if err != nil {
		t.Fatal(err)
	}

	r1, err := revs.Create(ctx, &treeRef, nil)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := revs.Create(ctx, &treeRef, []rs.Ref{r1})
	if err != nil {
		t.Fatal(err)
	}
	r3a, err := revs.Create(ctx, nil, []rs.Ref{r2})
	if err != nil {
		t.Fatal(err)
	}
	r3b, err := revs.Create(ctx, &treeRef, []rs.Ref{r2})
	if err != nil {
		t.Fatal(err)
	}
	r4, err := revs.Create(ctx, nil, []rs.Ref{r3a, r3b})
	if err != nil {
		t.Fatal(err)
	}

	ok, err := store.Contains(ctx, r4)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Errorf("store does not contain merge revision %s", r4)
	}

	merge, err := revs.Get(ctx, r4)
	if err != nil {
		t.Fatal(err)
	}
	parents, err := revs.Parents(ctx, merge)
	if err != nil {
		t.Fatal(err)
	}
	if len(parents) != 2 {
		t.Fatalf("got %d parents of merge revision, want 2", len(parents))
	}
	if got := parents[0].Ref(); got != r3a {
		t.Errorf("got first parent %s, want %s", got, r3a)
	}
	if got := parents[1].Ref(); got != r3b {
		t.Errorf("got second parent %s, want %s", got, r3b)
	}

	gotTree, ok, err := revs.TreeOf(ctx, merge)
	if err != nil {
		t.Fatal(err)
	}
	if ok || gotTree != nil {
		t.Error("merge revision unexpectedly has a tree")
	}

	gotTree, ok, err = revs.TreeOf(ctx, parents[1])
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("branch revision has no tree")
	}
	if entry, ok := gotTree.Find("fox.txt"); !ok || entry.Ref != blobRef {
		t.Errorf("tree of branch revision does not map fox.txt to %s", blobRef)
	}

	g, err := revs.Cut(ctx, []rs.Ref{r4}, []rs.Ref{r1})
	if err != nil {
		t.Fatal(err)
	}
	if got := g.Len(); got != 5 {
		t.Errorf("got %d revisions in cut, want 5", got)
	}
	if got := g.NumEdges(); got != 5 {
		t.Errorf("got %d edges in cut, want 5", got)
	}
	for _, want := range []rs.Ref{r1, r2, r3a, r3b, r4} {
		if !g.ContainsKey(want) {
			t.Errorf("cut is missing revision %s", want)
		}
	}

	var order []rs.Ref
	err = g.EachTopological(
		func(a, b *rev.Revision) bool { return a.Ref().Less(b.Ref()) },
		func(r *rev.Revision) error {
			order = append(order, r.Ref())
			return nil
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	if len(order) != 5 {
		t.Fatalf("got %d revisions in topological order, want 5", len(order))
	}
	if order[0] != r4 {
		t.Errorf("topological order starts at %s, want %s", order[0], r4)
	}
	if order[4] != r1 {
		t.Errorf("topological order ends at %s, want %s", order[4], r1)
	}
}
