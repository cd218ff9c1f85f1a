package rs

import (
	"context"
	"errors"
)

// Getter is a read-only Store (qv).
type Getter interface {
	// Get gets a blob by its ref.
	// If no blob with that ref is present,
	// the error is ErrNotFound
	// (possibly wrapped).
	Get(context.Context, Ref) (Blob, error)

	// Contains tells whether a blob with the given ref is present,
	// without retrieving its bytes.
	Contains(context.Context, Ref) (bool, error)

	// ListRefs calls a function for each blob ref in the store in lexicographic order,
	// beginning with the first ref _after_ the specified one.
	//
	// The calls reflect at least the set of refs
	// known at the moment ListRefs was called.
	// It is unspecified whether later changes,
	// that happen concurrently with ListRefs,
	// are reflected.
	//
	// If the callback function returns an error,
	// ListRefs exits with that error.
	ListRefs(context.Context, Ref, func(r Ref) error) error
}

// Store is a blob store.
// It stores byte sequences - "blobs" - of arbitrary length.
// Each blob can be retrieved using its "ref" as a lookup key.
// A ref is simply the SHA2-256 hash of the blob's content.
//
// Blobs in a Store are immutable:
// they can be added but never updated or removed.
type Store interface {
	Getter

	// Put adds b to the store if it was not already present.
	// It returns b's ref and a boolean that is true iff the blob had to be added.
	// Adding a blob that is already present is not an error:
	// the store keeps a single copy and reports added==false.
	Put(ctx context.Context, b Blob) (ref Ref, added bool, err error)
}

// ErrNotFound is the error returned
// when a Getter tries to access a non-existent ref.
var ErrNotFound = errors.New("not found")

// ErrBadEncoding is the error returned
// when a blob's bytes fail to decode as the structure they are expected to contain.
var ErrBadEncoding = errors.New("bad encoding")
