package rev

import (
	"context"

	"github.com/pkg/errors"

	"github.com/bobg/rs"
	"github.com/bobg/rs/graph"
	"github.com/bobg/rs/tree"
)

// TreeStore resolves refs into trees.
// The tree package's Store type implements it.
type TreeStore interface {
	TreeAt(context.Context, rs.Ref) (*tree.Tree, error)
}

// Store reads and writes revisions.
// It pairs a blob store,
// which holds the revisions themselves,
// with a TreeStore,
// which resolves the trees they refer to.
// One Store describes one logical repository.
//
// A Store holds no mutable state of its own.
// Its methods are safe for concurrent use:
// concurrent Creates of the same revision converge on the same ref
// by content addressing,
// and each Cut call keeps its own traversal state.
type Store struct {
	blobs rs.Store
	trees TreeStore
}

// New produces a Store
// over the given blob store and tree store.
func New(blobs rs.Store, trees TreeStore) *Store {
	return &Store{blobs: blobs, trees: trees}
}

// Create stores a new revision with the given tree ref and parents
// and returns its ref.
// A nil treeRef means the revision records no tree.
// Parent order is preserved and significant.
//
// Create does not check that the tree or the parents are resolvable.
// A revision's references are dereferenced lazily,
// by TreeOf, Parents, and Cut,
// and a dangling reference surfaces there as rs.ErrNotFound.
//
// Creating a revision that already exists is a no-op
// yielding the same ref.
func (s *Store) Create(ctx context.Context, treeRef *rs.Ref, parents []rs.Ref) (rs.Ref, error) {
	r := &Revision{Tree: treeRef, Parents: parents}
	ref, _, err := s.blobs.Put(ctx, r.Encode())
	return ref, errors.Wrap(err, "storing revision")
}

// Get reads the revision with the given ref.
// The error wraps rs.ErrNotFound if no such blob exists,
// and rs.ErrBadEncoding if the blob is not a canonical Revision encoding.
func (s *Store) Get(ctx context.Context, ref rs.Ref) (*Revision, error) {
	b, err := s.blobs.Get(ctx, ref)
	if err != nil {
		return nil, errors.Wrapf(err, "getting revision %s", ref)
	}
	r, err := Decode(b)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding revision %s", ref)
	}
	return r, nil
}

// TreeOf resolves the tree of r.
// It returns (nil, false, nil) when r records no tree.
// When r has a tree ref that the tree store cannot resolve,
// the error from the tree store is returned:
// a dangling tree ref is an integrity violation,
// never a silent absence.
func (s *Store) TreeOf(ctx context.Context, r *Revision) (*tree.Tree, bool, error) {
	if r.Tree == nil {
		return nil, false, nil
	}
	t, err := s.trees.TreeAt(ctx, *r.Tree)
	if err != nil {
		return nil, false, errors.Wrapf(err, "resolving tree %s", *r.Tree)
	}
	return t, true, nil
}

// Parents resolves the parents of r,
// in r's parent order.
// Any parent ref that cannot be resolved fails the whole call:
// a dangling parent is an integrity violation,
// reported with an error wrapping rs.ErrNotFound,
// never skipped.
func (s *Store) Parents(ctx context.Context, r *Revision) ([]*Revision, error) {
	if len(r.Parents) == 0 {
		return nil, nil
	}
	blobs, err := s.getMany(ctx, r.Parents)
	if err != nil {
		return nil, errors.Wrap(err, "getting parents")
	}
	out := make([]*Revision, 0, len(r.Parents))
	for _, pref := range r.Parents {
		p, err := Decode(blobs[pref])
		if err != nil {
			return nil, errors.Wrapf(err, "decoding parent revision %s", pref)
		}
		out = append(out, p)
	}
	return out, nil
}

// Cut computes the region of history reachable from the revisions in max,
// bounded by the revisions in roots.
// The result is a graph of revisions keyed by ref,
// with an edge from each revision to each of its parents in the region.
//
// A revision in roots is included in the result when reached,
// but it is treated as a boundary:
// its parents are neither fetched nor represented.
// A nil or empty roots leaves the region unbounded,
// and the result is the full ancestor closure of max.
// Refs in roots that are never reached from max do not appear in the result.
//
// Cut resolves each reachable revision exactly once,
// however many paths lead to it.
// Any reachable ref that cannot be resolved fails the call
// with an error wrapping rs.ErrNotFound.
func (s *Store) Cut(ctx context.Context, max, roots []rs.Ref) (*graph.Graph[*Revision, rs.Ref], error) {
	var (
		rootSet  = make(map[rs.Ref]bool)
		visited  = make(map[rs.Ref]bool)
		revs     = make(map[rs.Ref]*Revision)
		order    []rs.Ref
		frontier []rs.Ref
	)

	for _, ref := range roots {
		rootSet[ref] = true
	}
	for _, ref := range max {
		if visited[ref] {
			continue
		}
		visited[ref] = true
		frontier = append(frontier, ref)
	}

	for len(frontier) > 0 {
		blobs, err := s.getMany(ctx, frontier)
		if err != nil {
			return nil, errors.Wrap(err, "resolving revisions")
		}

		var next []rs.Ref
		for _, ref := range frontier {
			r, err := Decode(blobs[ref])
			if err != nil {
				return nil, errors.Wrapf(err, "decoding revision %s", ref)
			}
			revs[ref] = r
			order = append(order, ref)

			if rootSet[ref] {
				continue
			}
			for _, pref := range r.Parents {
				if visited[pref] {
					continue
				}
				visited[pref] = true
				next = append(next, pref)
			}
		}
		frontier = next
	}

	g := graph.New((*Revision).Ref)
	for _, ref := range order {
		r := revs[ref]
		g.Add(r)
		if rootSet[ref] {
			continue
		}
		for _, pref := range r.Parents {
			g.AddEdge(r, revs[pref])
		}
	}
	return g, nil
}

// getMany resolves refs to blobs,
// reducing a partial GetMulti failure
// to the error for the first failing ref in refs order.
func (s *Store) getMany(ctx context.Context, refs []rs.Ref) (map[rs.Ref]rs.Blob, error) {
	blobs, err := rs.GetMulti(ctx, s.blobs, refs)
	if err == nil {
		return blobs, nil
	}
	var merr rs.MultiErr
	if errors.As(err, &merr) {
		for _, ref := range refs {
			if e, ok := merr[ref]; ok {
				return nil, errors.Wrapf(e, "getting %s", ref)
			}
		}
	}
	return nil, err
}
