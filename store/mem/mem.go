// Package mem implements an in-memory blob store.
package mem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bobg/rs"
	"github.com/bobg/rs/store"
	"github.com/bobg/rs/tag"
)

var (
	_ tag.Store      = &Store{}
	_ rs.MultiGetter = &Store{}
	_ rs.MultiPutter = &Store{}
)

// Store is a memory-based implementation of a blob store.
type Store struct {
	mu    sync.Mutex
	blobs map[rs.Ref]rs.Blob
	tags  map[string][]tag.TimeRef
}

// New produces a new Store.
func New() *Store {
	return &Store{
		blobs: make(map[rs.Ref]rs.Blob),
		tags:  make(map[string][]tag.TimeRef),
	}
}

// Get gets the blob with hash `ref`.
func (s *Store) Get(_ context.Context, ref rs.Ref) (rs.Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(ref)
}

// Caller must obtain a lock.
func (s *Store) get(ref rs.Ref) (rs.Blob, error) {
	if b, ok := s.blobs[ref]; ok {
		return b, nil
	}
	return nil, rs.ErrNotFound
}

// GetMulti gets multiple blobs in one call.
// Refs not present in the store are reported via an rs.MultiErr,
// alongside the partial result.
func (s *Store) GetMulti(_ context.Context, refs []rs.Ref) (map[rs.Ref]rs.Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		result = make(map[rs.Ref]rs.Blob)
		errmap rs.MultiErr
	)
	for _, ref := range refs {
		b, ok := s.blobs[ref]
		if !ok {
			if errmap == nil {
				errmap = make(rs.MultiErr)
			}
			errmap[ref] = rs.ErrNotFound
			continue
		}
		result[ref] = b
	}
	if errmap != nil {
		return result, errmap
	}
	return result, nil
}

// Contains tells whether the store contains a blob with hash `ref`.
func (s *Store) Contains(_ context.Context, ref rs.Ref) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.blobs[ref]
	return ok, nil
}

// Put adds a blob to the store if it wasn't already present.
func (s *Store) Put(_ context.Context, b rs.Blob) (rs.Ref, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, added := s.put(b)
	return ref, added, nil
}

// Caller must obtain a lock.
func (s *Store) put(b rs.Blob) (rs.Ref, bool) {
	var added bool

	r := b.Ref()
	if _, ok := s.blobs[r]; !ok {
		s.blobs[r] = b
		added = true
	}

	return r, added
}

// PutMulti adds multiple blobs to the store in one call.
func (s *Store) PutMulti(_ context.Context, blobs []rs.Blob) (map[rs.Ref]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make(map[rs.Ref]bool, len(blobs))
	for _, b := range blobs {
		ref, added := s.put(b)
		result[ref] = added
	}
	return result, nil
}

// ListRefs produces all blob refs in the store, in lexicographic order,
// beginning with the first ref after `start`.
func (s *Store) ListRefs(ctx context.Context, start rs.Ref, f func(rs.Ref) error) error {
	s.mu.Lock()
	refs := make([]rs.Ref, 0, len(s.blobs))
	for ref := range s.blobs {
		refs = append(refs, ref)
	}
	s.mu.Unlock()

	sort.Slice(refs, func(i, j int) bool { return refs[i].Less(refs[j]) })
	index := sort.Search(len(refs), func(n int) bool {
		return start.Less(refs[n])
	})

	for i := index; i < len(refs); i++ {
		err := f(refs[i])
		if err != nil {
			return err
		}
	}
	return nil
}

// GetTag gets the ref assigned to the given tag as of a given time.
func (s *Store) GetTag(_ context.Context, name string, at time.Time) (rs.Ref, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return tag.Find(s.tags[name], at)
}

// PutTag assigns a ref to a tag as of a given time.
func (s *Store) PutTag(_ context.Context, name string, ref rs.Ref, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tags[name] = append(s.tags[name], tag.TimeRef{T: at, R: ref})
	sort.Slice(s.tags[name], func(i, j int) bool {
		return s.tags[name][i].T.Before(s.tags[name][j].T)
	})

	return nil
}

// ListTags lists all tag assignments in the store,
// in lexicographic order of tag name
// and chronological order within a name,
// beginning with the first name after `start`.
func (s *Store) ListTags(ctx context.Context, start string, f func(string, rs.Ref, time.Time) error) error {
	s.mu.Lock()
	names := make([]string, 0, len(s.tags))
	for name := range s.tags {
		names = append(names, name)
	}
	s.mu.Unlock()

	sort.Strings(names)
	index := sort.Search(len(names), func(n int) bool {
		return names[n] > start
	})

	for i := index; i < len(names); i++ {
		name := names[i]
		s.mu.Lock()
		trs := make([]tag.TimeRef, len(s.tags[name]))
		copy(trs, s.tags[name])
		s.mu.Unlock()
		for _, tr := range trs {
			err := f(name, tr.R, tr.T)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func init() {
	store.Register("mem", func(context.Context, map[string]interface{}) (rs.Store, error) {
		return New(), nil
	})
}
