// Package tree implements hierarchical snapshots of named content in a blob store.
package tree

import (
	"io/fs"
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/bobg/rs"
)

// An Entry names a ref within a Tree.
type Entry struct {
	// Name is the entry's name.
	// It is nonempty and contains no slashes.
	Name string

	// Ref is the ref of the entry's content:
	// another Tree for a directory,
	// a split root
	// (see the split package)
	// for a plain file.
	Ref rs.Ref

	// Mode holds the entry's fs.FileMode bits.
	Mode uint32
}

// IsDir tells whether e refers to a subtree.
func (e Entry) IsDir() bool {
	return fs.FileMode(e.Mode)&fs.ModeDir != 0
}

// A Tree is one level of a hierarchical snapshot:
// a set of named entries,
// each referring to a bytestream or to a further Tree.
//
// A Tree is identified by the ref of its canonical encoding,
// which lists entries sorted by name.
// Two Trees with the same entries are therefore the same Tree,
// no matter the order in which the entries were added.
type Tree struct {
	Entries []Entry
}

// Add adds e to t,
// keeping entries sorted by name
// and replacing any existing entry with the same name.
func (t *Tree) Add(e Entry) {
	i := sort.Search(len(t.Entries), func(i int) bool {
		return t.Entries[i].Name >= e.Name
	})
	if i < len(t.Entries) && t.Entries[i].Name == e.Name {
		t.Entries[i] = e
		return
	}
	t.Entries = append(t.Entries, Entry{})
	copy(t.Entries[i+1:], t.Entries[i:])
	t.Entries[i] = e
}

// Find returns the entry in t with the given name,
// and a boolean telling whether it is present.
func (t *Tree) Find(name string) (Entry, bool) {
	for _, e := range t.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Encode produces the canonical encoding of t.
// Entries appear sorted by name,
// so the encoding is a pure function of the logical content of t,
// independent of the order in which entries were added.
// It is an error for t to contain duplicate, empty, or slash-containing names.
func (t *Tree) Encode() (rs.Blob, error) {
	entries := make([]Entry, len(t.Entries))
	copy(entries, t.Entries)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	var b []byte
	for i, e := range entries {
		if err := checkName(e.Name); err != nil {
			return nil, err
		}
		if i > 0 && e.Name == entries[i-1].Name {
			return nil, errors.Errorf("duplicate entry name %q", e.Name)
		}
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeEntry(e))
	}
	return b, nil
}

// Ref computes the ref of the canonical encoding of t.
func (t *Tree) Ref() (rs.Ref, error) {
	b, err := t.Encode()
	if err != nil {
		return rs.Zero, err
	}
	return b.Ref(), nil
}

func checkName(name string) error {
	if name == "" {
		return errors.New("empty entry name")
	}
	if strings.Contains(name, "/") {
		return errors.Errorf("entry name %q contains a slash", name)
	}
	return nil
}

func encodeEntry(e Entry) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, e.Name)
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendBytes(b, e.Ref[:])
	if e.Mode != 0 {
		b = protowire.AppendTag(b, 3, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(e.Mode))
	}
	return b
}

// Decode parses the canonical encoding of a Tree.
// Bytes that Encode could not have produced -
// unknown fields,
// out-of-order or duplicate entries,
// malformed entry records,
// trailing data -
// cause an error wrapping rs.ErrBadEncoding.
func Decode(b rs.Blob) (*Tree, error) {
	var (
		t    Tree
		prev string
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errors.Wrap(rs.ErrBadEncoding, "reading tree field tag")
		}
		b = b[n:]
		if num != 1 || typ != protowire.BytesType {
			return nil, errors.Wrapf(rs.ErrBadEncoding, "unexpected tree field %d", num)
		}
		eb, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, errors.Wrap(rs.ErrBadEncoding, "reading tree entry")
		}
		b = b[n:]

		e, err := decodeEntry(eb)
		if err != nil {
			return nil, err
		}
		if len(t.Entries) > 0 && e.Name <= prev {
			return nil, errors.Wrapf(rs.ErrBadEncoding, "entry %q out of order", e.Name)
		}
		prev = e.Name
		t.Entries = append(t.Entries, e)
	}
	return &t, nil
}

func decodeEntry(b []byte) (Entry, error) {
	var (
		e       Entry
		sawRef  bool
		lastNum protowire.Number
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Entry{}, errors.Wrap(rs.ErrBadEncoding, "reading entry field tag")
		}
		b = b[n:]
		if num <= lastNum {
			return Entry{}, errors.Wrapf(rs.ErrBadEncoding, "entry field %d out of order", num)
		}
		lastNum = num

		switch num {
		case 1:
			if typ != protowire.BytesType {
				return Entry{}, errors.Wrap(rs.ErrBadEncoding, "wrong type for entry name")
			}
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Entry{}, errors.Wrap(rs.ErrBadEncoding, "reading entry name")
			}
			b = b[n:]
			e.Name = string(v)

		case 2:
			if typ != protowire.BytesType {
				return Entry{}, errors.Wrap(rs.ErrBadEncoding, "wrong type for entry ref")
			}
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Entry{}, errors.Wrap(rs.ErrBadEncoding, "reading entry ref")
			}
			if len(v) != len(rs.Ref{}) {
				return Entry{}, errors.Wrapf(rs.ErrBadEncoding, "entry ref has %d bytes, want %d", len(v), len(rs.Ref{}))
			}
			b = b[n:]
			e.Ref = rs.RefFromBytes(v)
			sawRef = true

		case 3:
			if typ != protowire.VarintType {
				return Entry{}, errors.Wrap(rs.ErrBadEncoding, "wrong type for entry mode")
			}
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Entry{}, errors.Wrap(rs.ErrBadEncoding, "reading entry mode")
			}
			if v == 0 {
				return Entry{}, errors.Wrap(rs.ErrBadEncoding, "explicit zero entry mode")
			}
			if v > math.MaxUint32 {
				return Entry{}, errors.Wrapf(rs.ErrBadEncoding, "entry mode %d out of range", v)
			}
			b = b[n:]
			e.Mode = uint32(v)

		default:
			return Entry{}, errors.Wrapf(rs.ErrBadEncoding, "unexpected entry field %d", num)
		}
	}
	if err := checkName(e.Name); err != nil {
		return Entry{}, errors.Wrap(rs.ErrBadEncoding, err.Error())
	}
	if !sawRef {
		return Entry{}, errors.Wrap(rs.ErrBadEncoding, "missing entry ref")
	}
	return e, nil
}
