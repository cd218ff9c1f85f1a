package split_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/bobg/rs"
	"github.com/bobg/rs/split"
	"github.com/bobg/rs/store/mem"
	"github.com/bobg/rs/testutil"
)

func TestSplitEmpty(t *testing.T) {
	m := mem.New()
	w := split.NewWriter(context.Background(), m)
	err := w.Close()
	if err != nil {
		t.Fatal(err)
	}
	if w.Root != rs.Zero {
		t.Errorf("got Root of %s, want %s", w.Root, rs.Zero)
	}
}

func TestReadWrite(t *testing.T) {
	data := testutil.RandBytes(42, 1<<20)
	testutil.ReadWrite(context.Background(), t, mem.New(), data)
}

func TestReadWriteSmall(t *testing.T) {
	// Smaller than the splitter's minimum chunk size:
	// a single chunk under a single node.
	data := []byte("tiny")
	testutil.ReadWrite(context.Background(), t, mem.New(), data)
}

func TestReadWriteOptions(t *testing.T) {
	var (
		ctx  = context.Background()
		m    = mem.New()
		data = testutil.RandBytes(17, 1<<13)
	)

	ref, err := split.Write(ctx, m, bytes.NewReader(data), split.MinSize(64), split.Bits(8), split.Fanout(2))
	if err != nil {
		t.Fatal(err)
	}

	buf := new(bytes.Buffer)
	err = split.Read(ctx, m, ref, buf)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), data) {
		t.Error("mismatch")
	}
}

func TestReadMissingRoot(t *testing.T) {
	var (
		ctx = context.Background()
		m   = mem.New()
	)
	err := split.Read(ctx, m, rs.Ref{0x1}, new(bytes.Buffer))
	if !errors.Is(err, rs.ErrNotFound) {
		t.Errorf("got %v, want %s", err, rs.ErrNotFound)
	}
}

func TestNodeRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		node split.Node
	}{
		{
			name: "leaves",
			node: split.Node{Size: 100, Leaves: []rs.Ref{{0x1}, {0x2}}},
		},
		{
			name: "nodes",
			node: split.Node{Size: 9999, Nodes: []rs.Ref{{0x3}, {0x4}, {0x5}}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got split.Node
			err := got.Decode(tc.node.Encode())
			if err != nil {
				t.Fatal(err)
			}
			if got.Size != tc.node.Size || len(got.Leaves) != len(tc.node.Leaves) || len(got.Nodes) != len(tc.node.Nodes) {
				t.Errorf("got %+v, want %+v", got, tc.node)
			}
		})
	}
}

func TestNodeDecodeErrors(t *testing.T) {
	var (
		size    = appendSize(nil, 7)
		leaf    = appendRef(nil, 2, rs.Ref{0xaa})
		subnode = appendRef(nil, 3, rs.Ref{0xbb})
	)

	cases := []struct {
		name string
		b    []byte
	}{
		{
			name: "truncated tag",
			b:    []byte{0x80},
		},
		{
			name: "unknown field",
			b:    protowire.AppendTag(nil, 4, protowire.VarintType),
		},
		{
			name: "wrong type for size",
			b:    protowire.AppendBytes(protowire.AppendTag(nil, 1, protowire.BytesType), []byte("x")),
		},
		{
			name: "explicit zero size",
			b:    appendSize(nil, 0),
		},
		{
			name: "duplicate size",
			b:    appendSize(appendSize(nil, 7), 7),
		},
		{
			name: "size after leaf",
			b:    appendSize(leaf, 7),
		},
		{
			name: "leaf after child",
			b:    append(append(size, subnode...), leaf...),
		},
		{
			name: "child after leaf",
			b:    append(append(size, leaf...), subnode...),
		},
		{
			name: "short ref",
			b:    protowire.AppendBytes(protowire.AppendTag(size, 2, protowire.BytesType), []byte("stubby")),
		},
		{
			name: "truncated ref",
			b:    append(protowire.AppendTag(size, 2, protowire.BytesType), 32),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var n split.Node
			err := n.Decode(tc.b)
			if !errors.Is(err, rs.ErrBadEncoding) {
				t.Errorf("got %v, want %s", err, rs.ErrBadEncoding)
			}
		})
	}
}

func appendSize(b []byte, size uint64) []byte {
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	return protowire.AppendVarint(b, size)
}

func appendRef(b []byte, num protowire.Number, ref rs.Ref) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, ref[:])
}

func TestReadBadInterior(t *testing.T) {
	var (
		ctx = context.Background()
		m   = mem.New()
	)

	// An interior node pointing at a blob that is not a valid Node.
	junkRef, _, err := m.Put(ctx, rs.Blob("junk"))
	if err != nil {
		t.Fatal(err)
	}
	root := &split.Node{Size: 4, Nodes: []rs.Ref{junkRef}}
	rootRef, _, err := m.Put(ctx, root.Encode())
	if err != nil {
		t.Fatal(err)
	}

	err = split.Read(ctx, m, rootRef, new(bytes.Buffer))
	if !errors.Is(err, rs.ErrBadEncoding) {
		t.Errorf("got %v, want %s", err, rs.ErrBadEncoding)
	}
}

func TestSplitDeterministic(t *testing.T) {
	var (
		ctx  = context.Background()
		data = testutil.RandBytes(3, 1<<16)
	)

	write := func() (rs.Ref, error) {
		return split.Write(ctx, mem.New(), bytes.NewReader(data))
	}

	ref1, err := write()
	if err != nil {
		t.Fatal(err)
	}
	ref2, err := write()
	if err != nil {
		t.Fatal(err)
	}
	if ref1 != ref2 {
		t.Errorf("got differing roots %s and %s for the same input", ref1, ref2)
	}
}
