// Package tag implements tags:
// mutable names for blob refs,
// each with a timestamped history of assignments.
package tag

import (
	"context"
	"sort"
	"time"

	"github.com/bobg/rs"
)

// TimeRef is a blob-reference / timestamp pair.
// Abstractly, a tag maps to one or more TimeRefs.
type TimeRef struct {
	T time.Time
	R rs.Ref
}

// Find is a helper for finding the latest blob reference
// in a list of TimeRefs, sorted by time,
// whose timestamp is not later than `at`.
// It returns rs.ErrNotFound if the list is empty
// or its earliest entry is later than `at`.
func Find(pairs []TimeRef, at time.Time) (rs.Ref, error) {
	index := sort.Search(len(pairs), func(n int) bool {
		return !pairs[n].T.Before(at)
	})
	if index < len(pairs) && pairs[index].T.Equal(at) {
		return pairs[index].R, nil
	}
	if index == 0 {
		return rs.Zero, rs.ErrNotFound
	}
	return pairs[index-1].R, nil
}

// Getter is the read-only part of Store (qv).
type Getter interface {
	// GetTag returns the ref assigned to the given tag
	// as of the given time.
	// It returns rs.ErrNotFound if the tag does not exist,
	// or if its earliest assignment is later than `at`.
	GetTag(ctx context.Context, name string, at time.Time) (rs.Ref, error)

	// ListTags calls a function for each tag assignment,
	// in lexicographic order of tag name
	// and chronological order within a name,
	// beginning with the first name _after_ the specified one.
	//
	// The calls reflect at least the assignments
	// known at the moment ListTags was called.
	// It is unspecified whether later changes,
	// that happen concurrently with ListTags,
	// are reflected.
	//
	// If the callback function returns an error,
	// ListTags exits with that error.
	ListTags(ctx context.Context, start string, f func(name string, ref rs.Ref, at time.Time) error) error
}

// Store is a blob store that additionally stores tags.
// Assigning a new ref to an existing tag does not remove
// earlier assignments from the tag's history.
type Store interface {
	rs.Store
	Getter

	// PutTag assigns a ref to a tag as of a given time.
	// The name must be nonempty.
	PutTag(ctx context.Context, name string, ref rs.Ref, at time.Time) error
}
