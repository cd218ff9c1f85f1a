// Package rev implements revisions:
// immutable records tying a snapshot of content to the history that produced it.
package rev

import (
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/bobg/rs"
)

// A Revision is one node in a history graph.
// It holds an optional ref for a tree of content
// (see the tree package)
// and the refs of zero or more parent revisions.
//
// A Revision is immutable once stored
// and is identified by the ref of its canonical encoding,
// so its identity commits to its tree and to its entire ancestry.
// Parent order is part of that identity:
// the same parents in a different order make a different Revision.
type Revision struct {
	// Tree is the ref of the content snapshot this revision records,
	// or nil if it records none.
	Tree *rs.Ref

	// Parents holds the refs of the revision's parents, in order.
	Parents []rs.Ref
}

// Encode produces the canonical encoding of r:
// the tree ref
// (when present)
// followed by the parent refs in order.
func (r *Revision) Encode() rs.Blob {
	var b []byte
	if r.Tree != nil {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, r.Tree[:])
	}
	for _, p := range r.Parents {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, p[:])
	}
	return b
}

// Ref computes the ref of r:
// the hash of its canonical encoding.
func (r *Revision) Ref() rs.Ref {
	return r.Encode().Ref()
}

// Decode parses the canonical encoding of a Revision.
// Bytes that Encode could not have produced -
// unknown fields,
// misplaced or duplicate tree refs,
// wrong-size refs,
// trailing data -
// cause an error wrapping rs.ErrBadEncoding.
func Decode(b rs.Blob) (*Revision, error) {
	var (
		r         Revision
		sawTree   bool
		sawParent bool
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errors.Wrap(rs.ErrBadEncoding, "reading revision field tag")
		}
		b = b[n:]

		switch {
		case num == 1 && typ == protowire.BytesType:
			if sawTree {
				return nil, errors.Wrap(rs.ErrBadEncoding, "duplicate tree ref")
			}
			if sawParent {
				return nil, errors.Wrap(rs.ErrBadEncoding, "tree ref after parent refs")
			}
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, errors.Wrap(rs.ErrBadEncoding, "reading tree ref")
			}
			if len(v) != len(rs.Ref{}) {
				return nil, errors.Wrapf(rs.ErrBadEncoding, "tree ref has %d bytes, want %d", len(v), len(rs.Ref{}))
			}
			b = b[n:]
			tref := rs.RefFromBytes(v)
			r.Tree = &tref
			sawTree = true

		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, errors.Wrap(rs.ErrBadEncoding, "reading parent ref")
			}
			if len(v) != len(rs.Ref{}) {
				return nil, errors.Wrapf(rs.ErrBadEncoding, "parent ref has %d bytes, want %d", len(v), len(rs.Ref{}))
			}
			b = b[n:]
			r.Parents = append(r.Parents, rs.RefFromBytes(v))
			sawParent = true

		default:
			return nil, errors.Wrapf(rs.ErrBadEncoding, "unexpected revision field %d", num)
		}
	}
	return &r, nil
}
