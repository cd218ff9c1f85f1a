// Package logging implements a store that delegates everything to a nested store,
// logging operations as they happen.
package logging

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pkg/errors"

	"github.com/bobg/rs"
	"github.com/bobg/rs/store"
	"github.com/bobg/rs/tag"
)

var _ tag.Store = &Store{}

type Store struct {
	s tag.Store
}

func New(s tag.Store) *Store {
	return &Store{s: s}
}

func (s *Store) Get(ctx context.Context, ref rs.Ref) (rs.Blob, error) {
	b, err := s.s.Get(ctx, ref)
	if err != nil {
		log.Printf("ERROR Get %s: %s", ref, err)
	} else {
		log.Printf("Get %s", ref)
	}
	return b, err
}

func (s *Store) Contains(ctx context.Context, ref rs.Ref) (bool, error) {
	ok, err := s.s.Contains(ctx, ref)
	if err != nil {
		log.Printf("ERROR Contains %s: %s", ref, err)
	} else {
		log.Printf("Contains %s: %v", ref, ok)
	}
	return ok, err
}

func (s *Store) ListRefs(ctx context.Context, start rs.Ref, f func(rs.Ref) error) error {
	log.Printf("ListRefs, start=%s", start)
	return s.s.ListRefs(ctx, start, func(ref rs.Ref) error {
		err := f(ref)
		if err != nil {
			log.Printf("  ERROR in ListRefs: %s: %s", ref, err)
		} else {
			log.Printf("  ListRefs: %s", ref)
		}
		return err
	})
}

func (s *Store) Put(ctx context.Context, b rs.Blob) (rs.Ref, bool, error) {
	ref, added, err := s.s.Put(ctx, b)
	if err != nil {
		log.Printf("ERROR in Put: %s", err)
	} else {
		log.Printf("Put %s, added=%v", ref, added)
	}
	return ref, added, err
}

func (s *Store) GetTag(ctx context.Context, name string, at time.Time) (rs.Ref, error) {
	ref, err := s.s.GetTag(ctx, name, at)
	if err != nil {
		log.Printf("ERROR in GetTag(%s, %s): %s", name, at, err)
	} else {
		log.Printf("GetTag(%s, %s): %s", name, at, ref)
	}
	return ref, err
}

func (s *Store) PutTag(ctx context.Context, name string, ref rs.Ref, at time.Time) error {
	err := s.s.PutTag(ctx, name, ref, at)
	if err != nil {
		log.Printf("ERROR in PutTag(%s, %s, %s): %s", name, ref, at, err)
	} else {
		log.Printf("PutTag(%s, %s, %s)", name, ref, at)
	}
	return err
}

func (s *Store) ListTags(ctx context.Context, start string, f func(string, rs.Ref, time.Time) error) error {
	log.Printf("ListTags, start=%s", start)
	return s.s.ListTags(ctx, start, func(name string, ref rs.Ref, at time.Time) error {
		err := f(name, ref, at)
		if err != nil {
			log.Printf("  ERROR in ListTags at (%s, %s, %s): %s", name, at, ref, err)
		} else {
			log.Printf("  ListTags: (%s, %s, %s)", name, at, ref)
		}
		return err
	})
}

func init() {
	store.Register("logging", func(ctx context.Context, conf map[string]interface{}) (rs.Store, error) {
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
		if a, ok := nestedStore.(tag.Store); ok {
			return New(a), nil
		}
		return nil, fmt.Errorf("nested store is a %T and not a tag.Store", nestedStore)
	})
}
