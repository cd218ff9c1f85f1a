// Package gcs implements a blob store on Google Cloud Storage.
package gcs

import (
	"context"
	"encoding/hex"
	stderrs "errors"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/bobg/rs"
	"github.com/bobg/rs/store"
	"github.com/bobg/rs/tag"
)

var _ tag.Store = &Store{}

// Store is a Google Cloud Storage-based implementation of a blob store.
type Store struct {
	bucket *storage.BucketHandle
}

// New produces a new Store.
func New(bucket *storage.BucketHandle) *Store {
	return &Store{bucket: bucket}
}

// Get gets the blob with hash `ref`.
func (s *Store) Get(ctx context.Context, ref rs.Ref) (rs.Blob, error) {
	name := blobObjName(ref)
	r, err := s.bucket.Object(name).NewReader(ctx)
	if stderrs.Is(err, storage.ErrObjectNotExist) {
		return nil, rs.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading info of object %s", name)
	}
	defer r.Close()

	b := make([]byte, r.Attrs.Size)
	_, err = io.ReadFull(r, b)
	return b, errors.Wrapf(err, "reading contents of object %s", name)
}

// Contains tells whether the store contains a blob with hash `ref`.
func (s *Store) Contains(ctx context.Context, ref rs.Ref) (bool, error) {
	name := blobObjName(ref)
	_, err := s.bucket.Object(name).Attrs(ctx)
	if stderrs.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "getting object attrs for %s", name)
	}
	return true, nil
}

// Put adds a blob to the store if it wasn't already present.
// The write carries a does-not-exist precondition,
// making duplicate puts harmless.
func (s *Store) Put(ctx context.Context, b rs.Blob) (rs.Ref, bool, error) {
	var (
		ref  = b.Ref()
		name = blobObjName(ref)
		obj  = s.bucket.Object(name).If(storage.Conditions{DoesNotExist: true})
		w    = obj.NewWriter(ctx)
	)

	// A precondition failure may not surface until Close.
	_, err := w.Write(b)
	if err2 := w.Close(); err == nil {
		err = err2
	}

	var e *googleapi.Error
	if stderrs.As(err, &e) && e.Code == http.StatusPreconditionFailed {
		return ref, false, nil
	}
	if err != nil {
		return rs.Zero, false, errors.Wrapf(err, "writing object %s", name)
	}
	return ref, true, nil
}

// ListRefs produces all blob refs in the store, in lexicographic order,
// beginning with the first ref after `start`.
func (s *Store) ListRefs(ctx context.Context, start rs.Ref, f func(rs.Ref) error) error {
	// Google Cloud Storage iterators have no API for starting in the middle of a bucket.
	// But they can filter by object-name prefix.
	// So we take (the hex encoding of) `start` and repeatedly compute prefixes for the objects we want.
	// If `start` is e67a, for example, the sequence of generated prefixes is:
	//   e67b e67c e67d e67e e67f
	//   e68 e69 e6a e6b e6c e6d e6e e6f
	//   e7 e8 e9 ea eb ec ed ee ef
	//   f
	return eachHexPrefix(start.String(), false, func(prefix string) error {
		return s.listRefs(ctx, prefix, f)
	})
}

func (s *Store) listRefs(ctx context.Context, prefix string, f func(rs.Ref) error) error {
	iter := s.bucket.Objects(ctx, &storage.Query{Prefix: blobPrefix + prefix})
	for {
		obj, err := iter.Next()
		if stderrs.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return err
		}
		ref, err := refFromBlobObjName(obj.Name)
		if err != nil {
			return err
		}
		err = f(ref)
		if err != nil {
			return err
		}
	}
}

// GetTag gets the ref assigned to the given tag as of a given time.
func (s *Store) GetTag(ctx context.Context, name string, at time.Time) (rs.Ref, error) {
	var (
		prefix = tagPrefix(name)
		iter   = s.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	)

	// Tag assignments come back in reverse chronological order
	// (since we usually want the latest one).
	// Find the first one whose timestamp is `at` or earlier.
	for {
		attrs, err := iter.Next()
		if stderrs.Is(err, iterator.Done) {
			return rs.Zero, rs.ErrNotFound
		}
		if err != nil {
			return rs.Zero, errors.Wrap(err, "iterating over tag objects")
		}
		_, atime, err := tagTimeFromObjName(attrs.Name)
		if err != nil {
			return rs.Zero, errors.Wrapf(err, "decoding object name %s", attrs.Name)
		}
		if atime.After(at) {
			continue
		}

		ref, err := s.getTagRef(ctx, attrs.Name)
		return ref, errors.Wrapf(err, "reading object %s", attrs.Name)
	}
}

// PutTag assigns a ref to a tag as of a given time.
func (s *Store) PutTag(ctx context.Context, name string, ref rs.Ref, at time.Time) error {
	if name == "" {
		return errors.New("empty tag name")
	}

	var (
		objName = tagObjName(name, at)
		w       = s.bucket.Object(objName).NewWriter(ctx)
	)
	_, err := w.Write(ref[:])
	if err2 := w.Close(); err == nil {
		err = err2
	}
	return errors.Wrapf(err, "writing object %s", objName)
}

// ListTags lists all tag assignments in the store,
// in lexicographic order of tag name
// and chronological order within a name,
// beginning with the first name after `start`.
func (s *Store) ListTags(ctx context.Context, start string, f func(string, rs.Ref, time.Time) error) error {
	iter := s.bucket.Objects(ctx, &storage.Query{Prefix: tagObjPrefix})

	// Within a name, objects arrive newest-first.
	// Buffer each name's run and flush it reversed.
	var (
		curName string
		run     []tag.TimeRef
	)
	flush := func() error {
		for i := len(run) - 1; i >= 0; i-- {
			err := f(curName, run[i].R, run[i].T)
			if err != nil {
				return err
			}
		}
		run = nil
		return nil
	}

	for {
		attrs, err := iter.Next()
		if stderrs.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return errors.Wrap(err, "iterating over tag objects")
		}
		name, at, err := tagTimeFromObjName(attrs.Name)
		if err != nil {
			return errors.Wrapf(err, "decoding object name %s", attrs.Name)
		}
		if name <= start {
			continue
		}
		if name != curName {
			err = flush()
			if err != nil {
				return err
			}
			curName = name
		}
		ref, err := s.getTagRef(ctx, attrs.Name)
		if err != nil {
			return errors.Wrapf(err, "reading object %s", attrs.Name)
		}
		run = append(run, tag.TimeRef{T: at, R: ref})
	}
	return flush()
}

func (s *Store) getTagRef(ctx context.Context, objName string) (rs.Ref, error) {
	r, err := s.bucket.Object(objName).NewReader(ctx)
	if err != nil {
		return rs.Zero, errors.Wrapf(err, "reading info of object %s", objName)
	}
	defer r.Close()

	var ref rs.Ref
	if r.Attrs.Size != int64(len(ref)) {
		return rs.Zero, errors.Errorf("object %s has wrong size %d (want %d)", objName, r.Attrs.Size, len(ref))
	}

	_, err = io.ReadFull(r, ref[:])
	return ref, errors.Wrapf(err, "reading contents of object %s", objName)
}

func eachHexPrefix(prefix string, incl bool, f func(string) error) error {
	prefix = strings.ToLower(prefix)
	for len(prefix) > 0 {
		end := hexval(prefix[len(prefix)-1:][0])
		if !incl {
			end++
		}
		prefix = prefix[:len(prefix)-1]
		for c := end; c < 16; c++ {
			err := f(prefix + string(hexdigit(c)))
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func hexval(b byte) int {
	switch {
	case '0' <= b && b <= '9':
		return int(b - '0')
	case 'a' <= b && b <= 'f':
		return int(10 + b - 'a')
	case 'A' <= b && b <= 'F':
		return int(10 + b - 'A')
	}
	return 0
}

func hexdigit(n int) byte {
	if n < 10 {
		return byte(n + '0')
	}
	return byte(n - 10 + 'a')
}

const (
	blobPrefix   = "b:"
	tagObjPrefix = "t:"
)

func blobObjName(ref rs.Ref) string {
	return blobPrefix + ref.String()
}

func refFromBlobObjName(name string) (rs.Ref, error) {
	return rs.RefFromHex(name[len(blobPrefix):])
}

func tagPrefix(name string) string {
	return tagObjPrefix + hex.EncodeToString([]byte(name)) + ":"
}

func tagObjName(name string, at time.Time) string {
	return tagPrefix(name) + nanosToStr(timeToInvNanos(at))
}

var tagNameRegex = regexp.MustCompile(`^t:([0-9a-f]+):(\d{30})$`)

func tagTimeFromObjName(objName string) (string, time.Time, error) {
	m := tagNameRegex.FindStringSubmatch(objName)
	if len(m) < 3 {
		return "", time.Time{}, errors.New("malformed name")
	}
	name, err := hex.DecodeString(m[1])
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "hex-decoding tag name")
	}
	return string(name), invNanosToTime(strToNanos(m[2])), nil
}

func init() {
	store.Register("gcs", func(ctx context.Context, conf map[string]interface{}) (rs.Store, error) {
		var options []option.ClientOption
		creds, ok := conf["creds"].(string)
		if !ok {
			return nil, errors.New(`missing "creds" parameter`)
		}
		bucketName, ok := conf["bucket"].(string)
		if !ok {
			return nil, errors.New(`missing "bucket" parameter`)
		}
		options = append(options, option.WithCredentialsFile(creds))
		c, err := storage.NewClient(ctx, options...)
		if err != nil {
			return nil, errors.Wrap(err, "creating cloud storage client")
		}
		return New(c.Bucket(bucketName)), nil
	})
}
