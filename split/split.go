// Package split implements reading and writing of hashsplit trees in a blob store.
// See github.com/bobg/hashsplit for more information.
package split

import (
	"context"
	"io"

	"github.com/bobg/hashsplit"
	"github.com/pkg/errors"

	"github.com/bobg/rs"
)

// Writer is an io.WriteCloser that splits its input with a hashsplit.Splitter,
// writing the chunks to an rs.Store as separate blobs.
// It additionally assembles those chunks into a tree with a hashsplit.TreeBuilder.
// The tree nodes are also written to the rs.Store as serialized Node objects.
// The rs.Ref of the tree root is available as Writer.Root after a call to Close.
// If the input is empty, Root remains rs.Zero.
type Writer struct {
	Ctx    context.Context
	Root   rs.Ref // populated by Close
	st     rs.Store
	spl    *hashsplit.Splitter
	tb     *hashsplit.TreeBuilder
	fanout uint
}

// NewWriter produces a new Writer writing to the given blob store.
// The given context object is stored in the Writer and used in subsequent calls to Write and Close.
// This is an antipattern but acceptable when an object must adhere to a context-free stdlib interface
// (https://github.com/golang/go/wiki/CodeReviewComments#contexts).
// Callers may replace the context object during the lifetime of the Writer as needed.
func NewWriter(ctx context.Context, st rs.Store, opts ...Option) *Writer {
	tb := hashsplit.NewTreeBuilder()
	w := &Writer{
		Ctx:    ctx,
		st:     st,
		tb:     tb,
		fanout: 4, // TODO: does this provide the best fan-out?
	}
	spl := hashsplit.NewSplitter(func(bytes []byte, level uint) error {
		size := len(bytes)
		ref, _, err := st.Put(w.Ctx, bytes)
		if err != nil {
			return errors.Wrap(err, "writing split chunk to store")
		}
		tb.Add(ref[:], size, level/w.fanout)
		return nil
	})
	spl.MinSize = 1024
	spl.SplitBits = 14
	w.spl = spl
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write implements io.Writer.
func (w *Writer) Write(inp []byte) (int, error) {
	return w.spl.Write(inp)
}

// Close implements io.Closer.
func (w *Writer) Close() error {
	if w.tb == nil {
		return nil
	}
	err := w.spl.Close()
	if err != nil {
		return err
	}
	if root := w.tb.Root(); root != nil {
		rootRef, err := storeTree(w.Ctx, w.st, root)
		if err != nil {
			return err
		}
		w.Root = rootRef
	}
	w.tb = nil
	return nil
}

func storeTree(ctx context.Context, s rs.Store, n *hashsplit.Node) (rs.Ref, error) {
	tn := &Node{Size: n.Size}
	if len(n.Leaves) > 0 {
		for _, l := range n.Leaves {
			tn.Leaves = append(tn.Leaves, rs.RefFromBytes(l))
		}
	} else {
		for _, child := range n.Nodes {
			childRef, err := storeTree(ctx, s, child)
			if err != nil {
				return rs.Zero, err
			}
			tn.Nodes = append(tn.Nodes, childRef)
		}
	}
	ref, _, err := s.Put(ctx, tn.Encode())
	return ref, errors.Wrap(err, "storing split node")
}

type Option func(*Writer)

func Bits(n uint) Option {
	return func(w *Writer) {
		w.spl.SplitBits = n
	}
}

func MinSize(n int) Option {
	return func(w *Writer) {
		w.spl.MinSize = n
	}
}

func Fanout(n uint) Option {
	return func(w *Writer) {
		w.fanout = n
	}
}

// Write splits the content of r to the given blob store,
// returning the ref of the root Node.
// It returns rs.Zero and no error when r is empty.
func Write(ctx context.Context, st rs.Store, r io.Reader, opts ...Option) (rs.Ref, error) {
	w := NewWriter(ctx, st, opts...)
	_, err := io.Copy(w, r)
	if err != nil {
		return rs.Zero, errors.Wrap(err, "splitting input")
	}
	err = w.Close()
	if err != nil {
		return rs.Zero, errors.Wrap(err, "closing split writer")
	}
	return w.Root, nil
}

// Read reads blobs from `g`,
// reassembling the content of the blob tree created with Write
// and writing it to `w`.
// The ref of the root Node is given by `ref`.
func Read(ctx context.Context, g rs.Getter, ref rs.Ref, w io.Writer) error {
	b, err := g.Get(ctx, ref)
	if err != nil {
		return errors.Wrapf(err, "getting root node %s", ref)
	}
	var n Node
	err = n.Decode(b)
	if err != nil {
		return errors.Wrapf(err, "decoding root node %s", ref)
	}
	return splitRead(ctx, g, &n, w)
}

func splitRead(ctx context.Context, g rs.Getter, n *Node, w io.Writer) error {
	if len(n.Leaves) > 0 {
		return splitReadHelper(ctx, g, n.Leaves, func(m []byte) error {
			_, err := w.Write(m)
			return err
		})
	}
	return splitReadHelper(ctx, g, n.Nodes, func(m []byte) error {
		var sub Node
		err := sub.Decode(m)
		if err != nil {
			return err
		}
		return splitRead(ctx, g, &sub, w)
	})
}

func splitReadHelper(ctx context.Context, g rs.Getter, subrefs []rs.Ref, do func([]byte) error) error {
	blobs, err := rs.GetMulti(ctx, g, subrefs)
	if err != nil {
		return errors.Wrap(err, "getting subtree blobs")
	}
	for _, subref := range subrefs {
		err = do(blobs[subref])
		if err != nil {
			return err
		}
	}
	return nil
}
