// Package rs describes a content-addressable store of revision history.
package rs

import (
	"bytes"
	"crypto/sha256"
	"database/sql/driver"
	"encoding/hex"
	"errors"
	"fmt"
)

type (
	// Blob is the type of a blob.
	Blob []byte

	// Ref is the ref of a blob: its sha256 hash.
	Ref [sha256.Size]byte
)

// Ref computes the Ref of a blob.
func (b Blob) Ref() Ref {
	return sha256.Sum256(b)
}

// Zero is the zero value of a Ref.
var Zero Ref

// IsZero tells whether r is the zero Ref.
func (r Ref) IsZero() bool {
	return r == Zero
}

func (r Ref) String() string {
	return hex.EncodeToString(r[:])
}

func (r Ref) Less(other Ref) bool {
	return bytes.Compare(r[:], other[:]) < 0
}

// FromHex parses the hex string s,
// which must be exactly 2*sha256.Size characters long,
// into r.
func (r *Ref) FromHex(s string) error {
	if len(s) != 2*sha256.Size {
		return errors.New("wrong length")
	}
	_, err := hex.Decode(r[:], []byte(s))
	return err
}

// Value implements driver.Valuer,
// allowing a Ref to be used as a query parameter in database/sql calls.
func (r Ref) Value() (driver.Value, error) {
	return r[:], nil
}

// Scan implements sql.Scanner,
// allowing a Ref to be read from a BLOB column in database/sql calls.
func (r *Ref) Scan(src interface{}) error {
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into Ref", src)
	}
	if len(b) != sha256.Size {
		return fmt.Errorf("scanning %d bytes into Ref, want %d", len(b), sha256.Size)
	}
	copy(r[:], b)
	return nil
}

// RefFromBytes produces a Ref from the bytes in b.
// If b is not exactly sha256.Size bytes long,
// the result is silently zero-padded or truncated.
func RefFromBytes(b []byte) Ref {
	var out Ref
	copy(out[:], b)
	return out
}

// RefFromHex produces a Ref from a hex string.
func RefFromHex(s string) (Ref, error) {
	var out Ref
	err := out.FromHex(s)
	return out, err
}
