package rs

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MultiGetter is implemented by Getters that can retrieve many blobs in a single call.
type MultiGetter interface {
	GetMulti(context.Context, []Ref) (map[Ref]Blob, error)
}

// MultiPutter is implemented by Stores that can store many blobs in a single call.
type MultiPutter interface {
	PutMulti(context.Context, []Blob) (map[Ref]bool, error)
}

// GetMulti gets multiple blobs with a single call.
// By default this is implemented as a bunch of concurrent individual Get calls.
// However, if g implements MultiGetter, its GetMulti method is used instead.
// The return value is a mapping of input refs to the blobs that were found in g.
// The returned error may be a MultiErr,
// mapping input refs to errors encountered retrieving those specific refs.
// This function may return a successful partial result even in case of error.
// In particular, when the error return is a MultiErr,
// every input ref appears in either the result map or the MultiErr map.
func GetMulti(ctx context.Context, g Getter, refs []Ref) (map[Ref]Blob, error) {
	if m, ok := g.(MultiGetter); ok {
		return m.GetMulti(ctx, refs)
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		res    = make(map[Ref]Blob)
		errmap MultiErr
	)

	for _, ref := range refs {
		ref := ref
		wg.Add(1)
		go func() {
			defer wg.Done()

			blob, err := g.Get(ctx, ref)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errmap == nil {
					errmap = make(MultiErr)
				}
				errmap[ref] = err
				return
			}
			res[ref] = blob
		}()
	}

	wg.Wait()

	if errmap != nil {
		return res, errmap
	}
	return res, nil
}

// PutMulti stores multiple blobs with a single call.
// By default this is implemented as a bunch of concurrent individual Put calls.
// However, if s implements MultiPutter, its PutMulti method is used instead.
// The return value is a mapping of input blobs' refs to a boolean indicating whether each was a new addition to s.
// The returned error may be a MultiErr,
// mapping input blobs' refs to errors encountered writing those specific blobs.
// This function may return a successful partial result even in case of error.
// In particular, when the error return is a MultiErr,
// every input ref appears in either the result map or the MultiErr map.
func PutMulti(ctx context.Context, s Store, blobs []Blob) (map[Ref]bool, error) {
	if m, ok := s.(MultiPutter); ok {
		return m.PutMulti(ctx, blobs)
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		res    = make(map[Ref]bool)
		errmap MultiErr
	)

	for _, blob := range blobs {
		blob := blob
		wg.Add(1)
		go func() {
			defer wg.Done()

			ref, added, err := s.Put(ctx, blob)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errmap == nil {
					errmap = make(MultiErr)
				}
				errmap[blob.Ref()] = err
				return
			}
			res[ref] = added
		}()
	}

	wg.Wait()

	if errmap != nil {
		return res, errmap
	}
	return res, nil
}

// MultiErr is a type of error returned by GetMulti and PutMulti.
// It maps individual refs to errors encountered trying to Get or Put them.
type MultiErr map[Ref]error

// Error implements the error interface.
func (e MultiErr) Error() string {
	strs := make([]string, 0, len(e))
	for ref, err := range e {
		strs = append(strs, fmt.Sprintf("%s: %s", ref, err))
	}
	sort.Strings(strs)
	return "error(s): " + strings.Join(strs, "; ")
}
