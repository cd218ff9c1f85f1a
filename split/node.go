package split

import (
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/bobg/rs"
)

// Node is a node in the tree produced by a split Write.
// An interior node carries the refs of its child nodes,
// a leaf node carries the refs of content chunks.
// Size is the total size of the content under the node.
type Node struct {
	Size   uint64
	Leaves []rs.Ref
	Nodes  []rs.Ref
}

// Encode produces the canonical serialization of n:
// the size as field 1 when it is nonzero,
// then leaf refs as repeated field 2,
// then child-node refs as repeated field 3.
func (n *Node) Encode() rs.Blob {
	var b []byte
	if n.Size != 0 {
		b = protowire.AppendTag(b, 1, protowire.VarintType)
		b = protowire.AppendVarint(b, n.Size)
	}
	for _, l := range n.Leaves {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, l[:])
	}
	for _, c := range n.Nodes {
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendBytes(b, c[:])
	}
	return b
}

// Ref produces the ref of n's canonical serialization.
func (n *Node) Ref() rs.Ref {
	return n.Encode().Ref()
}

// Decode parses the result of Encode into n.
// It rejects anything but a canonical serialization,
// wrapping rs.ErrBadEncoding.
func (n *Node) Decode(b rs.Blob) error {
	var (
		result  Node
		sawSize bool
	)
	for len(b) > 0 {
		num, typ, cur := protowire.ConsumeTag(b)
		if cur < 0 {
			return errors.Wrap(rs.ErrBadEncoding, "reading field tag")
		}
		b = b[cur:]

		switch {
		case num == 1 && typ == protowire.VarintType:
			if sawSize || len(result.Leaves) > 0 || len(result.Nodes) > 0 {
				return errors.Wrap(rs.ErrBadEncoding, "misplaced size field")
			}
			size, cur := protowire.ConsumeVarint(b)
			if cur < 0 {
				return errors.Wrap(rs.ErrBadEncoding, "reading size")
			}
			if size == 0 {
				return errors.Wrap(rs.ErrBadEncoding, "explicit zero size")
			}
			b = b[cur:]
			result.Size = size
			sawSize = true

		case num == 2 && typ == protowire.BytesType:
			if len(result.Nodes) > 0 {
				return errors.Wrap(rs.ErrBadEncoding, "leaf ref after child ref")
			}
			ref, err := consumeRef(&b)
			if err != nil {
				return errors.Wrap(err, "reading leaf ref")
			}
			result.Leaves = append(result.Leaves, ref)

		case num == 3 && typ == protowire.BytesType:
			if len(result.Leaves) > 0 {
				return errors.Wrap(rs.ErrBadEncoding, "child ref alongside leaf refs")
			}
			ref, err := consumeRef(&b)
			if err != nil {
				return errors.Wrap(err, "reading child ref")
			}
			result.Nodes = append(result.Nodes, ref)

		default:
			return errors.Wrapf(rs.ErrBadEncoding, "unexpected field %d", num)
		}
	}
	*n = result
	return nil
}

func consumeRef(b *rs.Blob) (rs.Ref, error) {
	bytes, cur := protowire.ConsumeBytes(*b)
	if cur < 0 {
		return rs.Zero, rs.ErrBadEncoding
	}
	if len(bytes) != len(rs.Ref{}) {
		return rs.Zero, errors.Wrapf(rs.ErrBadEncoding, "ref is %d bytes, want %d", len(bytes), len(rs.Ref{}))
	}
	*b = (*b)[cur:]
	return rs.RefFromBytes(bytes), nil
}
