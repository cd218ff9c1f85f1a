package rs_test

import (
	"strings"
	"testing"
	"testing/quick"

	. "github.com/bobg/rs"
)

func TestBlobRef(t *testing.T) {
	cases := []struct {
		name string
		blob Blob
		want string
	}{
		{
			name: "empty",
			blob: Blob(""),
			want: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name: "hello",
			blob: Blob("hello world"),
			want: "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		},
		{
			name: "fox",
			blob: Blob("The quick brown fox jumps over the lazy dog"),
			want: "d7a8fbb307d7809469ca9abcb0082e4f8d5651e46d3cdb762d02d0bf37c9e592",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.blob.Ref().String(); got != c.want {
				t.Errorf("got %s, want %s", got, c.want)
			}
		})
	}
}

func TestRefHexRoundTrip(t *testing.T) {
	f := func(ref Ref) bool {
		got, err := RefFromHex(ref.String())
		if err != nil {
			t.Log(err)
			return false
		}
		return got == ref
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestRefFromHexErrors(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{name: "empty", in: ""},
		{name: "short", in: "abcd"},
		{name: "long", in: strings.Repeat("ab", 33)},
		{name: "nonhex", in: strings.Repeat("zz", 32)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := RefFromHex(c.in); err == nil {
				t.Errorf("got no error for input %q", c.in)
			}
		})
	}
}

func TestRefLess(t *testing.T) {
	var (
		a = Ref{0x01}
		b = Ref{0x02}
	)
	if !Zero.Less(a) {
		t.Error("Zero is not less than a nonzero ref")
	}
	if !a.Less(b) {
		t.Error("a is not less than b")
	}
	if b.Less(a) {
		t.Error("b is less than a")
	}
	if a.Less(a) {
		t.Error("a is less than itself")
	}
}

func TestRefIsZero(t *testing.T) {
	if !Zero.IsZero() {
		t.Error("Zero is not IsZero")
	}
	if (Ref{0x01}).IsZero() {
		t.Error("nonzero ref is IsZero")
	}
}
