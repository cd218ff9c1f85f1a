package store

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/bobg/rs"
)

// Sync synchronizes two or more stores.
// It runs ListRefs on all input stores.
// When a ref is found to be in some but not all stores,
// its blob is copied to the stores where it's missing.
func Sync(ctx context.Context, stores []rs.Store) error {
	if len(stores) < 2 {
		return nil
	}

	type tuple struct {
		s   rs.Store
		ch  <-chan rs.Ref
		ref *rs.Ref
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, ctx2 := errgroup.WithContext(ctx)

	tuples := make([]*tuple, 0, len(stores))
	for _, s := range stores {
		s := s
		ch := make(chan rs.Ref)
		eg.Go(func() error {
			defer close(ch)
			return s.ListRefs(ctx2, rs.Zero, func(ref rs.Ref) error {
				select {
				case <-ctx2.Done():
					return ctx2.Err()
				case ch <- ref:
				}
				return nil
			})
		})
		tuples = append(tuples, &tuple{s: s, ch: ch})
	}

	errch := make(chan error, 1)

	go func() {
		err := eg.Wait()
		if err != nil {
			errch <- err
		}
		close(errch)
	}()

	// Repeatedly refill the refs of the tuples that advanced last round,
	// then process the smallest buffered ref:
	// the stores that don't have it get a copy.
	havers := tuples
	for {
		for _, tup := range havers {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case err, ok := <-errch:
				if ok && err != nil {
					return err
				}
			case ref, ok := <-tup.ch:
				if ok {
					ref := ref
					tup.ref = &ref
				} else {
					tup.ref = nil
				}
			}
		}

		sort.Slice(tuples, func(i, j int) bool {
			ri := tuples[i].ref
			rj := tuples[j].ref
			if ri != nil {
				if rj != nil {
					return ri.Less(*rj)
				}
				return true
			}
			return false
		})

		if tuples[0].ref == nil {
			// All inputs are exhausted.
			return <-errch
		}

		ref := *(tuples[0].ref)

		havers = []*tuple{tuples[0]}
		i := 1
		for i < len(tuples) && tuples[i].ref != nil && *(tuples[i].ref) == ref {
			havers = append(havers, tuples[i])
			i++
		}

		if i == len(tuples) {
			continue
		}

		blob, err := havers[0].s.Get(ctx, ref)
		if err != nil {
			return errors.Wrapf(err, "getting blob %s", ref)
		}

		for _, tup := range tuples[i:] {
			_, _, err = tup.s.Put(ctx, blob)
			if err != nil {
				return errors.Wrapf(err, "storing blob %s", ref)
			}
		}
	}
}
