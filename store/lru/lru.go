// Package lru implements a blob store that acts as a least-recently-used cache for a nested blob store.
package lru

import (
	"context"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/bobg/rs"
	"github.com/bobg/rs/store"
)

var (
	_ rs.Store       = &Store{}
	_ rs.MultiGetter = &Store{}
)

// Store implements a memory-based least-recently-used cache for a blob store.
// It caches only blobs, not tags.
// Writes pass through to the underlying blob store.
type Store struct {
	c *lru.Cache // Ref->Blob
	s rs.Store
}

// New produces a new Store backed by `s` and caching up to `size` blobs.
func New(s rs.Store, size int) (*Store, error) {
	c, err := lru.New(size)
	return &Store{s: s, c: c}, err
}

// Get gets the blob with hash `ref`.
func (s *Store) Get(ctx context.Context, ref rs.Ref) (rs.Blob, error) {
	if got, ok := s.c.Get(ref); ok {
		return got.(rs.Blob), nil
	}
	blob, err := s.s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	s.c.Add(ref, blob)
	return blob, nil
}

// GetMulti gets multiple blobs in a single call.
// Cached blobs are returned without consulting the underlying store;
// the rest are fetched from it in one batch.
func (s *Store) GetMulti(ctx context.Context, refs []rs.Ref) (map[rs.Ref]rs.Blob, error) {
	var (
		result = make(map[rs.Ref]rs.Blob)
		misses []rs.Ref
	)
	for _, ref := range refs {
		if got, ok := s.c.Get(ref); ok {
			result[ref] = got.(rs.Blob)
		} else {
			misses = append(misses, ref)
		}
	}
	if len(misses) == 0 {
		return result, nil
	}
	fetched, err := rs.GetMulti(ctx, s.s, misses)
	for ref, blob := range fetched {
		s.c.Add(ref, blob)
		result[ref] = blob
	}
	return result, err
}

// Contains tells whether the store contains the blob with the given ref.
func (s *Store) Contains(ctx context.Context, ref rs.Ref) (bool, error) {
	if s.c.Contains(ref) {
		return true, nil
	}
	return s.s.Contains(ctx, ref)
}

// Put adds a blob to the store if it wasn't already present.
func (s *Store) Put(ctx context.Context, b rs.Blob) (rs.Ref, bool, error) {
	ref, added, err := s.s.Put(ctx, b)
	if err != nil {
		return ref, added, err
	}
	s.c.Add(ref, b)
	return ref, added, nil
}

// ListRefs produces all blob refs in the store, in lexicographic order.
func (s *Store) ListRefs(ctx context.Context, start rs.Ref, f func(rs.Ref) error) error {
	return s.s.ListRefs(ctx, start, f)
}

func init() {
	store.Register("lru", func(ctx context.Context, conf map[string]interface{}) (rs.Store, error) {
		size, ok := conf["size"].(float64) // JSON numbers decode as float64
		if !ok {
			return nil, errors.New(`missing "size" parameter`)
		}
		nested, ok := conf["nested"].(map[string]interface{})
		if !ok {
			return nil, errors.New(`missing "nested" parameter`)
		}
		nestedType, ok := nested["type"].(string)
		if !ok {
			return nil, errors.New(`"nested" parameter missing "type"`)
		}
		nestedStore, err := store.Create(ctx, nestedType, nested)
		if err != nil {
			return nil, errors.Wrap(err, "creating nested store")
		}
		return New(nestedStore, int(size))
	})
}
