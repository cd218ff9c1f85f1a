// Package testutil provides conformance harnesses
// for exercising blob-store implementations.
package testutil

import (
	"bytes"
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/bobg/rs"
	"github.com/bobg/rs/split"
)

// ReadWrite permits testing a Store implementation
// by split-writing some data to it,
// then reading it back out to make sure it's the same.
func ReadWrite(ctx context.Context, t *testing.T, store rs.Store, data []byte) {
	t1 := time.Now()
	ref, err := split.Write(ctx, store, bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	t.Logf("wrote %d bytes in %s", len(data), time.Since(t1))

	buf := new(bytes.Buffer)
	t2 := time.Now()
	err = split.Read(ctx, store, ref, buf)
	if err != nil {
		t.Fatal(err)
	}
	got := buf.Bytes()
	t.Logf("read %d bytes in %s", len(got), time.Since(t2))

	if len(got) != len(data) {
		t.Errorf("got length %d, want %d", len(got), len(data))
	} else {
		for i := 0; i < len(got); i++ {
			if got[i] != data[i] {
				t.Fatalf("mismatch at position %d (of %d)", i, len(got))
			}
		}
	}
}

// RandBytes produces n bytes of deterministic pseudorandom data
// for use with ReadWrite.
func RandBytes(seed int64, n int) []byte {
	data := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(data)
	return data
}
