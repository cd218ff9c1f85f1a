package replica

import (
	"context"
	"reflect"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pkg/errors"

	"github.com/bobg/rs"
	"github.com/bobg/rs/store"
)

var _ rs.Store = (*Store)(nil)

// Store is a blob store that delegates reads and writes to two sets of nested stores.
// One set is synchronous:
// writes to all of these must succeed before a call to Put returns,
// and an error from any will cause Put to fail.
// The other set is asynchronous:
// a call to Put queues writes on these stores but does not wait for them to finish.
// However, if any asynchronous write encounters an error,
// the whole Store is put into an error state and further operations will fail.
type Store struct {
	sync   []rs.Store
	async  []asyncChans
	cancel context.CancelFunc

	mu  sync.Mutex // protects err
	err error      // the error from an async goroutine, if any
}

type asyncChans struct {
	blobs chan<- rs.Blob
	errs  <-chan error
}

// New produces a new Store.
// The set of synchronous stores must be non-empty.
// The set of asynchronous stores may be empty.
// If there are any asynchronous stores,
// goroutines are launched for them,
// and canceling the given context object causes those to exit,
// placing the Store in an error state.
//
// Normally, writes to asynchronous stores do not block calls to Put,
// but the queue for each nested store has a fixed length given by n,
// which must be 1 or greater.
// If any async store falls too far behind,
// Put will block until all requests can be queued.
func New(ctx context.Context, sync []rs.Store, async []rs.Store, n int) *Store {
	result := &Store{sync: sync}

	if len(async) > 0 {
		ctx, result.cancel = context.WithCancel(ctx)

		selectCases := make([]reflect.SelectCase, 1+len(async))

		for i, a := range async {
			var (
				blobs = make(chan rs.Blob, n)
				errs  = make(chan error, 1)
			)

			result.async = append(result.async, asyncChans{blobs: blobs, errs: errs})

			selectCases[i].Dir = reflect.SelectRecv
			selectCases[i].Chan = reflect.ValueOf(errs)

			a := a
			go runAsync(ctx, a, blobs, errs)
		}

		selectCases[len(async)].Dir = reflect.SelectRecv
		selectCases[len(async)].Chan = reflect.ValueOf(ctx.Done())

		go func() {
			_, errval, ok := reflect.Select(selectCases)
			if ok {
				result.cancel()
				result.mu.Lock()
				result.err = errval.Interface().(error)
				result.mu.Unlock()
			}
		}()
	}

	return result
}

// Runs as a goroutine until ctx is canceled or an error occurs (which it writes to errs).
func runAsync(ctx context.Context, store rs.Store, blobs <-chan rs.Blob, errs chan<- error) {
	defer close(errs)

	for {
		select {
		case <-ctx.Done():
			errs <- ctx.Err()
			return

		case blob := <-blobs:
			_, _, err := store.Put(ctx, blob)
			if err != nil {
				errs <- err
				return
			}
		}
	}
}

// Put implements rs.Store.Put.
// The blob is stored in all synchronous nested stores.
// An error from any of them causes Put to return an error.
//
// Some nested stores may already have the blob and others may not,
// in which case the value of `added`
// (the boolean return value)
// is indeterminate.
// (It is determined by the first nested store to finish.)
//
// A request to write the blob is queued for any asynchronous nested stores.
// Normally this does not block the call to Put,
// but if any async store falls too far behind,
// Put must wait for space to open in its request queue before proceeding.
// The size of this queue is given by the int passed to New.
func (s *Store) Put(ctx context.Context, blob rs.Blob) (rs.Ref, bool, error) {
	if err := s.checkErr(); err != nil {
		return rs.Zero, false, errors.Wrap(err, "in async-store goroutine")
	}

	type pairType struct {
		ref   rs.Ref
		added bool
	}

	g, ctx := errgroup.WithContext(ctx)
	ch := make(chan pairType, len(s.sync))
	for _, store := range s.sync {
		store := store
		g.Go(func() error {
			ref, added, err := store.Put(ctx, blob)
			if err != nil {
				return err
			}
			ch <- pairType{ref: ref, added: added}
			return nil
		})
	}

	for _, a := range s.async {
		select {
		case <-ctx.Done():
			return rs.Zero, false, ctx.Err()

		case a.blobs <- blob:
		}
	}

	err := g.Wait()
	if err != nil {
		if s.cancel != nil {
			s.cancel()
		}
		return rs.Zero, false, err
	}
	pair := <-ch
	return pair.ref, pair.added, nil
}

// Get implements rs.Getter.
// It delegates the request to all of the synchronous stores in s,
// returning the result from the first one to respond without error
// and canceling the request to the others.
// If all synchronous stores respond with an error,
// one of those errors is returned.
func (s *Store) Get(ctx context.Context, ref rs.Ref) (rs.Blob, error) {
	if err := s.checkErr(); err != nil {
		return nil, errors.Wrap(err, "in async-store goroutine")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var g errgroup.Group

	// Buffered, so that late responders don't block after a winner is chosen.
	ch := make(chan rs.Blob, len(s.sync))
	for _, store := range s.sync {
		store := store
		g.Go(func() error {
			blob, err := store.Get(ctx, ref)
			if err != nil {
				return err
			}
			ch <- blob
			return nil
		})
	}

	done := make(chan struct{})
	var err error
	go func() {
		err = g.Wait()
		close(done)
	}()

	select {
	case blob := <-ch:
		return blob, nil

	case <-done:
		// Every store has responded. Take a successful result if there is one.
		select {
		case blob := <-ch:
			return blob, nil
		default:
			return nil, err
		}
	}
}

// Contains tells whether any of the synchronous stores in s contains the blob with the given ref.
// Errors are disregarded if some store answers yes;
// otherwise the first error encountered is returned.
func (s *Store) Contains(ctx context.Context, ref rs.Ref) (bool, error) {
	if err := s.checkErr(); err != nil {
		return false, errors.Wrap(err, "in async-store goroutine")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var g errgroup.Group

	ch := make(chan struct{}, len(s.sync))
	for _, store := range s.sync {
		store := store
		g.Go(func() error {
			ok, err := store.Contains(ctx, ref)
			if err != nil {
				return err
			}
			if ok {
				ch <- struct{}{}
			}
			return nil
		})
	}

	done := make(chan struct{})
	var err error
	go func() {
		err = g.Wait()
		close(done)
	}()

	select {
	case <-ch:
		return true, nil

	case <-done:
		select {
		case <-ch:
			return true, nil
		default:
			return false, err
		}
	}
}

// ListRefs implements rs.Getter.
// It delegates the request to all of the synchronous stores in s
// and synthesizes the result from the union of their refs.
func (s *Store) ListRefs(ctx context.Context, start rs.Ref, f func(rs.Ref) error) error {
	if err := s.checkErr(); err != nil {
		return errors.Wrap(err, "in async-store goroutine")
	}

	chans := make([]chan rs.Ref, len(s.sync))
	for i := 0; i < len(s.sync); i++ {
		chans[i] = make(chan rs.Ref, 1)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	for i, store := range s.sync {
		var (
			i     = i
			store = store
		)
		g.Go(func() error {
			defer close(chans[i])
			return store.ListRefs(ctx, start, func(ref rs.Ref) error {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case chans[i] <- ref:
					return nil
				}
			})
		})
	}

	last := start
	next := make([]rs.Ref, len(s.sync))
	for i, ch := range chans {
		next[i] = <-ch
	}

	for {
		var (
			best      rs.Ref
			bestIndex int
		)
		for i, ref := range next {
			if ref.IsZero() {
				continue
			}
			if ref == last {
				ref = <-chans[i]
				next[i] = ref
				if ref.IsZero() {
					continue
				}
			}
			if best.IsZero() {
				best, bestIndex = ref, i
				continue
			}
			if ref.Less(best) {
				best, bestIndex = ref, i
			}
		}
		if best.IsZero() {
			break
		}
		err := f(best)
		if err != nil {
			return err
		}
		last = best
		next[bestIndex] = <-chans[bestIndex]
	}

	return g.Wait()
}

func (s *Store) checkErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func init() {
	store.Register("replica", func(ctx context.Context, conf map[string]interface{}) (rs.Store, error) {
		var (
			syncStores  []rs.Store
			asyncStores []rs.Store
		)

		makeNested := func(item interface{}, kind string) (rs.Store, error) {
			nested, ok := item.(map[string]interface{})
			if !ok {
				return nil, errors.Errorf(`%q item is a %T, not an object`, kind, item)
			}
			nestedType, ok := nested["type"].(string)
			if !ok {
				return nil, errors.Errorf(`%q item missing "type"`, kind)
			}
			nestedStore, err := store.Create(ctx, nestedType, nested)
			return nestedStore, errors.Wrapf(err, "creating nested %s store", kind)
		}

		syncConf, ok := conf["sync"].([]interface{})
		if !ok {
			return nil, errors.New(`missing "sync" parameter`)
		}
		for _, item := range syncConf {
			nestedStore, err := makeNested(item, "sync")
			if err != nil {
				return nil, err
			}
			syncStores = append(syncStores, nestedStore)
		}

		if asyncConf, ok := conf["async"].([]interface{}); ok {
			for _, item := range asyncConf {
				nestedStore, err := makeNested(item, "async")
				if err != nil {
					return nil, err
				}
				asyncStores = append(asyncStores, nestedStore)
			}
		}

		queueLen := 10.0
		if n, ok := conf["queuelen"].(float64); ok {
			queueLen = n
		}

		return New(ctx, syncStores, asyncStores, int(queueLen)), nil
	})
}
