// Package file implements a blob store as a file hierarchy.
package file

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bobg/flock"
	"github.com/pkg/errors"

	"github.com/bobg/rs"
	"github.com/bobg/rs/store"
	"github.com/bobg/rs/tag"
)

var _ tag.Store = &Store{}

// Store is a file-based implementation of a blob store.
// Blobs live under root/blobs,
// sharded into subdirectories by hex prefix.
// Tags live under root/tags,
// one directory per hex-encoded name,
// containing one timestamp-named file per assignment.
type Store struct {
	root    string
	flocker flock.Locker
}

// New produces a new Store storing data beneath `root`.
func New(root string) *Store {
	return &Store{root: root}
}

func (s *Store) blobroot() string {
	return filepath.Join(s.root, "blobs")
}

func (s *Store) blobpath(ref rs.Ref) string {
	h := ref.String()
	return filepath.Join(s.blobroot(), h[:2], h[:4], h)
}

// Get gets the blob with hash `ref`.
func (s *Store) Get(_ context.Context, ref rs.Ref) (rs.Blob, error) {
	path := s.blobpath(ref)
	blob, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, rs.ErrNotFound
	}
	return blob, errors.Wrapf(err, "reading %s", path)
}

// Contains tells whether the store contains a blob with hash `ref`.
func (s *Store) Contains(_ context.Context, ref rs.Ref) (bool, error) {
	path := s.blobpath(ref)
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrapf(err, "statting %s", path)
}

// Put adds a blob to the store if it wasn't already present.
func (s *Store) Put(_ context.Context, b rs.Blob) (rs.Ref, bool, error) {
	var (
		ref  = b.Ref()
		path = s.blobpath(ref)
		dir  = filepath.Dir(path)
	)

	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return ref, false, errors.Wrapf(err, "ensuring path %s exists", dir)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if os.IsExist(err) {
		return ref, false, nil
	}
	if err != nil {
		return rs.Zero, false, errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()

	_, err = f.Write(b)
	if err != nil {
		return rs.Zero, false, errors.Wrapf(err, "writing data to %s", path)
	}

	return ref, true, nil
}

// ListRefs produces all blob refs in the store, in lexicographic order,
// beginning with the first ref after `start`.
func (s *Store) ListRefs(ctx context.Context, start rs.Ref, f func(rs.Ref) error) error {
	err := os.MkdirAll(s.blobroot(), 0755)
	if err != nil {
		return errors.Wrapf(err, "ensuring %s exists", s.blobroot())
	}

	topLevel, err := os.ReadDir(s.blobroot())
	if err != nil {
		return errors.Wrapf(err, "reading dir %s", s.blobroot())
	}

	// Shard dir names embed their prefixes,
	// so comparing them against prefixes of the start ref
	// works across shards.
	startHex := start.String()
	topIndex := sort.Search(len(topLevel), func(n int) bool {
		return topLevel[n].Name() >= startHex[:2]
	})
	for i := topIndex; i < len(topLevel); i++ {
		topInfo := topLevel[i]
		if !topInfo.IsDir() {
			continue
		}
		topName := topInfo.Name()
		if len(topName) != 2 {
			continue
		}
		if _, err = strconv.ParseInt(topName, 16, 64); err != nil {
			continue
		}

		midLevel, err := os.ReadDir(filepath.Join(s.blobroot(), topName))
		if err != nil {
			return errors.Wrapf(err, "reading dir %s/%s", s.blobroot(), topName)
		}
		midIndex := sort.Search(len(midLevel), func(n int) bool {
			return midLevel[n].Name() >= startHex[:4]
		})
		for j := midIndex; j < len(midLevel); j++ {
			midInfo := midLevel[j]
			if !midInfo.IsDir() {
				continue
			}
			midName := midInfo.Name()
			if len(midName) != 4 {
				continue
			}
			if _, err = strconv.ParseInt(midName, 16, 64); err != nil {
				continue
			}

			blobInfos, err := os.ReadDir(filepath.Join(s.blobroot(), topName, midName))
			if err != nil {
				return errors.Wrapf(err, "reading dir %s/%s/%s", s.blobroot(), topName, midName)
			}

			index := sort.Search(len(blobInfos), func(n int) bool {
				return blobInfos[n].Name() > startHex
			})
			for k := index; k < len(blobInfos); k++ {
				blobInfo := blobInfos[k]
				if blobInfo.IsDir() {
					continue
				}

				ref, err := rs.RefFromHex(blobInfo.Name())
				if err != nil {
					continue
				}

				err = f(ref)
				if err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Tag assignments are stored one per file,
// named by a fixed-width UTC timestamp so that names sort chronologically.
const tagTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func (s *Store) tagroot() string {
	return filepath.Join(s.root, "tags")
}

func (s *Store) tagdir(name string) string {
	return filepath.Join(s.tagroot(), hex.EncodeToString([]byte(name)))
}

func (s *Store) tagLockPath() string {
	return filepath.Join(s.root, "tags.lock")
}

// PutTag assigns a ref to a tag as of a given time.
func (s *Store) PutTag(_ context.Context, name string, ref rs.Ref, at time.Time) error {
	if name == "" {
		return errors.New("empty tag name")
	}

	err := s.flocker.Lock(s.tagLockPath())
	if err != nil {
		return errors.Wrap(err, "locking tags")
	}
	defer s.flocker.Unlock(s.tagLockPath())

	dir := s.tagdir(name)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return errors.Wrapf(err, "ensuring path %s exists", dir)
	}

	path := filepath.Join(dir, at.UTC().Format(tagTimeFormat))
	err = os.WriteFile(path, []byte(ref.String()), 0644)
	return errors.Wrapf(err, "writing %s", path)
}

// GetTag gets the ref assigned to the given tag as of a given time.
func (s *Store) GetTag(_ context.Context, name string, at time.Time) (rs.Ref, error) {
	trs, err := s.tagTimeRefs(name)
	if err != nil {
		return rs.Zero, err
	}
	return tag.Find(trs, at)
}

// ListTags lists all tag assignments in the store,
// in lexicographic order of tag name
// and chronological order within a name,
// beginning with the first name after `start`.
func (s *Store) ListTags(_ context.Context, start string, f func(string, rs.Ref, time.Time) error) error {
	err := s.flocker.Lock(s.tagLockPath())
	if err != nil {
		return errors.Wrap(err, "locking tags")
	}
	dirs, err := os.ReadDir(s.tagroot())
	s.flocker.Unlock(s.tagLockPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "reading dir %s", s.tagroot())
	}

	var names []string
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		decoded, err := hex.DecodeString(d.Name())
		if err != nil {
			continue
		}
		names = append(names, string(decoded))
	}
	sort.Strings(names)
	index := sort.Search(len(names), func(n int) bool {
		return names[n] > start
	})

	for i := index; i < len(names); i++ {
		name := names[i]
		trs, err := s.tagTimeRefs(name)
		if err != nil {
			return err
		}
		for _, tr := range trs {
			err = f(name, tr.R, tr.T)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// tagTimeRefs reads all assignments of the named tag,
// sorted by time.
func (s *Store) tagTimeRefs(name string) ([]tag.TimeRef, error) {
	err := s.flocker.Lock(s.tagLockPath())
	if err != nil {
		return nil, errors.Wrap(err, "locking tags")
	}
	defer s.flocker.Unlock(s.tagLockPath())

	dir := s.tagdir(name)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading dir %s", dir)
	}

	var trs []tag.TimeRef
	for _, entry := range entries {
		at, err := time.Parse(tagTimeFormat, entry.Name())
		if err != nil {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s/%s", dir, entry.Name())
		}
		ref, err := rs.RefFromHex(strings.TrimSpace(string(b)))
		if err != nil {
			return nil, errors.Wrapf(err, "parsing ref of %s at %s", name, entry.Name())
		}
		trs = append(trs, tag.TimeRef{T: at, R: ref})
	}
	sort.Slice(trs, func(i, j int) bool { return trs[i].T.Before(trs[j].T) })
	return trs, nil
}

func init() {
	store.Register("file", func(_ context.Context, conf map[string]interface{}) (rs.Store, error) {
		root, ok := conf["root"].(string)
		if !ok {
			return nil, errors.New(`missing "root" parameter`)
		}
		return New(root), nil
	})
}
