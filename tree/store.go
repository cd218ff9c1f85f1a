package tree

import (
	"context"

	"github.com/pkg/errors"

	"github.com/bobg/rs"
)

// Store reads and writes Trees in a blob store.
type Store struct {
	blobs rs.Store
}

// NewStore produces a Store backed by the given blob store.
func NewStore(blobs rs.Store) *Store {
	return &Store{blobs: blobs}
}

// Put adds the canonical encoding of t to the store.
// It returns the tree's ref
// and a boolean that is true iff the tree had to be added.
func (s *Store) Put(ctx context.Context, t *Tree) (rs.Ref, bool, error) {
	b, err := t.Encode()
	if err != nil {
		return rs.Zero, false, errors.Wrap(err, "encoding tree")
	}
	ref, added, err := s.blobs.Put(ctx, b)
	return ref, added, errors.Wrap(err, "storing tree")
}

// TreeAt reads the Tree with the given ref.
// The error is rs.ErrNotFound
// (wrapped)
// if the store has no blob with that ref,
// and wraps rs.ErrBadEncoding
// if the blob is not a canonical Tree encoding.
func (s *Store) TreeAt(ctx context.Context, ref rs.Ref) (*Tree, error) {
	b, err := s.blobs.Get(ctx, ref)
	if err != nil {
		return nil, errors.Wrapf(err, "getting tree %s", ref)
	}
	t, err := Decode(b)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding tree %s", ref)
	}
	return t, nil
}
