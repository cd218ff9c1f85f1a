// Package sqlite3 implements a blob store in a Sqlite3 database.
package sqlite3

import (
	"context"
	"database/sql"
	stderrs "errors"
	"time"

	"github.com/bobg/sqlutil"
	_ "github.com/mattn/go-sqlite3" // register the sqlite3 type for sql.Open
	"github.com/pkg/errors"

	"github.com/bobg/rs"
	"github.com/bobg/rs/store"
	"github.com/bobg/rs/tag"
)

var _ tag.Store = &Store{}

// Store is a Sqlite-based blob store.
type Store struct {
	db *sql.DB
}

// Schema is the SQL that New executes.
// It creates the `blobs` and `tags` tables if they do not exist.
// (If they do exist, they must have the columns, constraints, and indexing described here.)
const Schema = `
CREATE TABLE IF NOT EXISTS blobs (
  ref BLOB PRIMARY KEY NOT NULL,
  data BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS tags (
  name TEXT NOT NULL,
  ref BLOB NOT NULL,
  at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS tag_idx ON tags (name, at);
`

// Tag timestamps are stored as fixed-width UTC text,
// so that string comparison in SQL matches time order.
const timefmt = "2006-01-02T15:04:05.000000000Z07:00"

// New produces a new Store using `db` for storage.
// It expects to create tables `blobs` and `tags`,
// or for those tables already to exist with the correct schema.
// (See variable Schema.)
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	_, err := db.ExecContext(ctx, Schema)
	return &Store{db: db}, err
}

// Get gets the blob with hash `ref`.
func (s *Store) Get(ctx context.Context, ref rs.Ref) (rs.Blob, error) {
	const q = `SELECT data FROM blobs WHERE ref = $1`

	var b rs.Blob
	err := s.db.QueryRowContext(ctx, q, ref).Scan(&b)
	if stderrs.Is(err, sql.ErrNoRows) {
		return nil, rs.ErrNotFound
	}
	return b, errors.Wrapf(err, "getting %s", ref)
}

// Contains tells whether the store contains a blob with hash `ref`.
func (s *Store) Contains(ctx context.Context, ref rs.Ref) (bool, error) {
	const q = `SELECT 1 FROM blobs WHERE ref = $1`

	var one int
	err := s.db.QueryRowContext(ctx, q, ref).Scan(&one)
	if stderrs.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "checking %s", ref)
	}
	return true, nil
}

// Put adds a blob to the store if it wasn't already present.
func (s *Store) Put(ctx context.Context, b rs.Blob) (rs.Ref, bool, error) {
	const q = `INSERT INTO blobs (ref, data) VALUES ($1, $2) ON CONFLICT DO NOTHING`

	ref := b.Ref()
	res, err := s.db.ExecContext(ctx, q, ref, b)
	if err != nil {
		return rs.Zero, false, errors.Wrap(err, "inserting blob")
	}

	aff, err := res.RowsAffected()
	if err != nil {
		return rs.Zero, false, errors.Wrap(err, "counting affected rows")
	}

	return ref, aff > 0, nil
}

// ListRefs produces all blob refs in the store, in lexicographic order,
// beginning with the first ref after `start`.
func (s *Store) ListRefs(ctx context.Context, start rs.Ref, f func(rs.Ref) error) error {
	const q = `SELECT ref FROM blobs WHERE ref > $1 ORDER BY ref`
	return sqlutil.ForQueryRows(ctx, s.db, q, start, func(ref rs.Ref) error {
		return f(ref)
	})
}

// GetTag gets the ref assigned to the given tag as of a given time.
func (s *Store) GetTag(ctx context.Context, name string, at time.Time) (rs.Ref, error) {
	const q = `SELECT ref FROM tags WHERE name = $1 AND at <= $2 ORDER BY at DESC LIMIT 1`

	var result rs.Ref
	err := s.db.QueryRowContext(ctx, q, name, at.UTC().Format(timefmt)).Scan(&result)
	if stderrs.Is(err, sql.ErrNoRows) {
		return rs.Zero, rs.ErrNotFound
	}
	return result, errors.Wrapf(err, "getting tag %s", name)
}

// PutTag assigns a ref to a tag as of a given time.
func (s *Store) PutTag(ctx context.Context, name string, ref rs.Ref, at time.Time) error {
	const q = `INSERT INTO tags (name, ref, at) VALUES ($1, $2, $3)`

	_, err := s.db.ExecContext(ctx, q, name, ref, at.UTC().Format(timefmt))
	return errors.Wrapf(err, "inserting tag %s", name)
}

// ListTags lists all tag assignments in the store,
// in lexicographic order of tag name
// and chronological order within a name,
// beginning with the first name after `start`.
func (s *Store) ListTags(ctx context.Context, start string, f func(string, rs.Ref, time.Time) error) error {
	const q = `SELECT name, ref, at FROM tags WHERE name > $1 ORDER BY name, at`
	return sqlutil.ForQueryRows(ctx, s.db, q, start, func(name string, ref rs.Ref, atstr string) error {
		at, err := time.Parse(time.RFC3339Nano, atstr)
		if err != nil {
			return errors.Wrapf(err, "parsing time %s", atstr)
		}
		return f(name, ref, at)
	})
}

func init() {
	store.Register("sqlite3", func(ctx context.Context, conf map[string]interface{}) (rs.Store, error) {
		conn, ok := conf["conn"].(string)
		if !ok {
			return nil, errors.New(`missing "conn" parameter`)
		}
		db, err := sql.Open("sqlite3", conn)
		if err != nil {
			return nil, errors.Wrap(err, "opening db")
		}
		return New(ctx, db)
	})
}
