// Package bt implements a blob store on Google Cloud Bigtable.
package bt

import (
	"context"
	"encoding/hex"
	"fmt"
	"regexp"
	"time"

	"cloud.google.com/go/bigtable"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/bobg/rs"
	"github.com/bobg/rs/store"
	"github.com/bobg/rs/tag"
)

var (
	_ rs.MultiGetter = &Store{}
	_ tag.Store      = &Store{}
)

// Store is a Google Cloud Bigtable-based implementation of a blob store.
// Blobs and tag assignments live in the same table:
// blobs in rows prefixed "b:",
// tag assignments in rows prefixed "t:".
type Store struct {
	t *bigtable.Table
}

const (
	blobFamily = "blob"
	blobColumn = "blob"
	tagFamily  = "tag"
	tagColumn  = "tag"
)

// New produces a new Store writing to the given table.
// The table must have column families "blob" and "tag".
func New(t *bigtable.Table) *Store {
	return &Store{t: t}
}

// Get gets the blob with hash `ref`.
func (s *Store) Get(ctx context.Context, ref rs.Ref) (rs.Blob, error) {
	key := blobRowKey(ref)
	row, err := s.t.ReadRow(ctx, key)
	if err != nil {
		return nil, errors.Wrapf(err, "reading row %s", key)
	}
	items := row[blobFamily]
	if len(items) == 0 {
		return nil, rs.ErrNotFound
	}
	return rs.Blob(items[0].Value), nil
}

// GetMulti gets multiple blobs in one bulk read.
// Refs not present in the store are reported via an rs.MultiErr,
// alongside the partial result.
func (s *Store) GetMulti(ctx context.Context, refs []rs.Ref) (map[rs.Ref]rs.Blob, error) {
	rowKeys := make(bigtable.RowList, 0, len(refs))
	for _, ref := range refs {
		rowKeys = append(rowKeys, blobRowKey(ref))
	}

	result := make(map[rs.Ref]rs.Blob)
	err := s.t.ReadRows(ctx, rowKeys, func(row bigtable.Row) bool {
		items := row[blobFamily]
		if len(items) == 0 {
			return true
		}
		ref, err := refFromRowKey(row.Key())
		if err != nil {
			return true
		}
		result[ref] = rs.Blob(items[0].Value)
		return true
	})
	if err != nil {
		return result, errors.Wrap(err, "reading rows")
	}

	var errmap rs.MultiErr
	for _, ref := range refs {
		if _, ok := result[ref]; !ok {
			if errmap == nil {
				errmap = make(rs.MultiErr)
			}
			errmap[ref] = rs.ErrNotFound
		}
	}
	if errmap != nil {
		return result, errmap
	}
	return result, nil
}

// Contains tells whether the store contains a blob with hash `ref`.
func (s *Store) Contains(ctx context.Context, ref rs.Ref) (bool, error) {
	key := blobRowKey(ref)
	row, err := s.t.ReadRow(ctx, key, bigtable.RowFilter(bigtable.StripValueFilter()))
	if err != nil {
		return false, errors.Wrapf(err, "reading row %s", key)
	}
	return len(row[blobFamily]) > 0, nil
}

// Put adds a blob to the store if it wasn't already present.
// The write is conditional on the row not existing,
// making duplicate puts harmless.
func (s *Store) Put(ctx context.Context, b rs.Blob) (rs.Ref, bool, error) {
	mut := bigtable.NewMutation()
	mut.Set(blobFamily, blobColumn, bigtable.Now(), b)

	cmut := bigtable.NewCondMutation(bigtable.LatestNFilter(1), nil, mut)

	var alreadyPresent bool
	ref := b.Ref()
	err := s.t.Apply(ctx, blobRowKey(ref), cmut, bigtable.GetCondMutationResult(&alreadyPresent))
	return ref, !alreadyPresent, errors.Wrapf(err, "writing row for %s", ref)
}

// ListRefs produces all blob refs in the store, in lexicographic order,
// beginning with the first ref after `start`.
func (s *Store) ListRefs(ctx context.Context, start rs.Ref, f func(rs.Ref) error) error {
	var innerErr error
	rowFn := func(row bigtable.Row) bool {
		ref, err := refFromRowKey(row.Key())
		if err != nil {
			innerErr = errors.Wrapf(err, "extracting ref from key %s", row.Key())
			return false
		}
		err = f(ref)
		if err != nil {
			innerErr = err
			return false
		}
		return true
	}

	// Blob row keys have a fixed length,
	// so appending any byte to `start`'s key
	// lands strictly after it and before every successor.
	startKey := blobRowKey(start) + "0"
	filter := bigtable.RowKeyFilter("^b:") // blobs only
	err := s.t.ReadRows(ctx, bigtable.InfiniteRange(startKey), rowFn, bigtable.RowFilter(filter))
	if err != nil {
		return err
	}
	return innerErr
}

// GetTag gets the ref assigned to the given tag as of a given time.
func (s *Store) GetTag(ctx context.Context, name string, at time.Time) (rs.Ref, error) {
	var (
		found    *rs.Ref
		innerErr error
	)

	// Tag assignments come back in reverse chronological order
	// (since we usually want the latest one).
	// Find the first one whose timestamp is `at` or earlier.
	err := s.eachTagRow(ctx, name, func(row bigtable.Row) bool {
		key := row.Key()
		_, atime, err := tagTimeFromRowKey(key)
		if err != nil {
			innerErr = errors.Wrapf(err, "parsing tag/time from key %s", key)
			return false
		}
		if atime.After(at) {
			return true
		}
		ref, err := tagRefFromRow(row)
		if err != nil {
			innerErr = err
			return false
		}
		found = &ref
		return false
	})
	if err != nil {
		return rs.Zero, errors.Wrap(err, "iterating over tag rows")
	}
	if innerErr != nil {
		return rs.Zero, innerErr
	}
	if found == nil {
		return rs.Zero, rs.ErrNotFound
	}
	return *found, nil
}

// PutTag assigns a ref to a tag as of a given time.
func (s *Store) PutTag(ctx context.Context, name string, ref rs.Ref, at time.Time) error {
	if name == "" {
		return errors.New("empty tag name")
	}

	mut := bigtable.NewMutation()
	mut.Set(tagFamily, tagColumn, bigtable.Time(at), ref[:])

	key := tagRowKey(name, at)
	err := s.t.Apply(ctx, key, mut)
	return errors.Wrapf(err, "writing row %s", key)
}

// ListTags lists all tag assignments in the store,
// in lexicographic order of tag name
// and chronological order within a name,
// beginning with the first name after `start`.
func (s *Store) ListTags(ctx context.Context, start string, f func(string, rs.Ref, time.Time) error) error {
	// Within a name, rows arrive newest-first.
	// Buffer each name's run and flush it reversed.
	var (
		curName  string
		run      []tag.TimeRef
		innerErr error
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

	rowFn := func(row bigtable.Row) bool {
		key := row.Key()
		name, at, err := tagTimeFromRowKey(key)
		if err != nil {
			innerErr = errors.Wrapf(err, "parsing tag/time from key %s", key)
			return false
		}
		if name <= start {
			return true
		}
		if name != curName {
			err = flush()
			if err != nil {
				innerErr = err
				return false
			}
			curName = name
		}
		ref, err := tagRefFromRow(row)
		if err != nil {
			innerErr = err
			return false
		}
		run = append(run, tag.TimeRef{T: at, R: ref})
		return true
	}

	filter := bigtable.RowKeyFilter("^t:") // tags only
	err := s.t.ReadRows(ctx, bigtable.InfiniteRange(tagKeyTag), rowFn, bigtable.RowFilter(filter))
	if err != nil {
		return err
	}
	if innerErr != nil {
		return innerErr
	}
	return flush()
}

func (s *Store) eachTagRow(ctx context.Context, name string, f func(bigtable.Row) bool) error {
	prefix := tagKeyPrefix(name)
	filter := bigtable.RowKeyFilter(fmt.Sprintf("^%s\\d{30}$", prefix))
	return s.t.ReadRows(ctx, bigtable.PrefixRange(prefix), f, bigtable.RowFilter(filter))
}

func tagRefFromRow(row bigtable.Row) (rs.Ref, error) {
	items := row[tagFamily]
	if len(items) == 0 {
		return rs.Zero, errors.Errorf("row %s has no tag cell", row.Key())
	}
	if len(items[0].Value) != len(rs.Ref{}) {
		return rs.Zero, errors.Errorf("row %s has wrong-size ref %d (want %d)", row.Key(), len(items[0].Value), len(rs.Ref{}))
	}
	return rs.RefFromBytes(items[0].Value), nil
}

const (
	blobKeyTag = "b:"
	tagKeyTag  = "t:"
)

func blobRowKey(ref rs.Ref) string {
	return blobKeyTag + ref.String()
}

func refFromRowKey(key string) (rs.Ref, error) {
	return rs.RefFromHex(key[len(blobKeyTag):])
}

// tagKeyPrefix hex-encodes the tag name,
// which makes the prefix self-delimiting
// while preserving the lexicographic order of names.
func tagKeyPrefix(name string) string {
	return tagKeyTag + hex.EncodeToString([]byte(name)) + ":"
}

func tagRowKey(name string, at time.Time) string {
	return tagKeyPrefix(name) + nanosToStr(timeToInvNanos(at))
}

var tagKeyRegex = regexp.MustCompile(`^t:([0-9a-f]+):(\d{30})$`)

func tagTimeFromRowKey(key string) (string, time.Time, error) {
	m := tagKeyRegex.FindStringSubmatch(key)
	if len(m) < 3 {
		return "", time.Time{}, errors.New("malformed key")
	}
	name, err := hex.DecodeString(m[1])
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "hex-decoding tag name")
	}
	return string(name), invNanosToTime(strToNanos(m[2])), nil
}

func init() {
	store.Register("bt", func(ctx context.Context, conf map[string]interface{}) (rs.Store, error) {
		project, ok := conf["project"].(string)
		if !ok {
			return nil, errors.New(`missing "project" parameter`)
		}
		instance, ok := conf["instance"].(string)
		if !ok {
			return nil, errors.New(`missing "instance" parameter`)
		}
		table, ok := conf["table"].(string)
		if !ok {
			return nil, errors.New(`missing "table" parameter`)
		}

		// Credentials are optional:
		// the emulator needs none.
		var options []option.ClientOption
		if creds, ok := conf["creds"].(string); ok {
			options = append(options, option.WithCredentialsFile(creds))
		}

		c, err := bigtable.NewClient(ctx, project, instance, options...)
		if err != nil {
			return nil, errors.Wrap(err, "creating bigtable client")
		}
		return New(c.Open(table)), nil
	})
}
