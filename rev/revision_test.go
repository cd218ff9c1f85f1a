package rev_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/bobg/rs"
	"github.com/bobg/rs/rev"
)

func TestRevisionRoundTrip(t *testing.T) {
	tref := rs.Ref{0x11}

	cases := []struct {
		name string
		r    *rev.Revision
	}{
		{name: "empty", r: &rev.Revision{}},
		{name: "tree only", r: &rev.Revision{Tree: &tref}},
		{name: "parents only", r: &rev.Revision{Parents: []rs.Ref{{0x01}, {0x02}}}},
		{name: "tree and parents", r: &rev.Revision{Tree: &tref, Parents: []rs.Ref{{0x01}}}},
		{name: "duplicate parents", r: &rev.Revision{Parents: []rs.Ref{{0x01}, {0x01}}}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := rev.Decode(c.r.Encode())
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(c.r, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRevisionRefParentOrder(t *testing.T) {
	var (
		p1 = rs.Ref{0x01}
		p2 = rs.Ref{0x02}
		a  = rev.Revision{Parents: []rs.Ref{p1, p2}}
		b  = rev.Revision{Parents: []rs.Ref{p2, p1}}
	)
	if a.Ref() == b.Ref() {
		t.Error("revisions with different parent order got the same ref")
	}
}

func TestRevisionRefTree(t *testing.T) {
	var (
		zeroRef = rs.Zero
		someRef = rs.Ref{0x01}

		none = rev.Revision{}
		zero = rev.Revision{Tree: &zeroRef}
		some = rev.Revision{Tree: &someRef}
	)
	if none.Ref() == zero.Ref() {
		t.Error("absent tree and zero tree ref got the same ref")
	}
	if zero.Ref() == some.Ref() {
		t.Error("distinct tree refs got the same ref")
	}
}

func refBytes(num protowire.Number, size int) []byte {
	b := protowire.AppendTag(nil, num, protowire.BytesType)
	return protowire.AppendBytes(b, make([]byte, size))
}

func TestRevisionDecodeErrors(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
	}{
		{
			name: "truncated tag",
			in:   []byte{0xff},
		},
		{
			name: "truncated ref",
			in:   refBytes(2, 32)[:10],
		},
		{
			name: "tree ref wrong size",
			in:   refBytes(1, 31),
		},
		{
			name: "parent ref wrong size",
			in:   refBytes(2, 33),
		},
		{
			name: "duplicate tree ref",
			in:   append(refBytes(1, 32), refBytes(1, 32)...),
		},
		{
			name: "tree ref after parent",
			in:   append(refBytes(2, 32), refBytes(1, 32)...),
		},
		{
			name: "unknown field",
			in:   refBytes(3, 32),
		},
		{
			name: "wrong wire type",
			in:   protowire.AppendVarint(protowire.AppendTag(nil, 1, protowire.VarintType), 7),
		},
		{
			name: "trailing garbage",
			in:   append(refBytes(2, 32), 0xff),
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := rev.Decode(c.in)
			if !errors.Is(err, rs.ErrBadEncoding) {
				t.Errorf("got error %v, want %v", err, rs.ErrBadEncoding)
			}
		})
	}
}
