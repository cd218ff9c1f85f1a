package gcs

import (
	"fmt"
	"math"
	"math/big"
	"time"
)

// Tag object names embed an inverted timestamp:
// the distance in nanoseconds from the maximum representable time,
// zero-padded to a fixed width.
// Later times produce lexicographically smaller strings,
// so bucket iteration yields tag assignments newest-first.
// The arithmetic is done in big.Int
// because the distance overflows a time.Duration.

// invNanosWidth is the digit width of the inverted-timestamp suffix.
// maxTimeNanos has 28 digits, so 30 accommodates every time.
const invNanosWidth = 30

// unixEpochSecs is the number of seconds from Jan 1 of year 1,
// the zero of time.Time's internal calendar, to the Unix epoch.
const unixEpochSecs = (1969*365 + 1969/4 - 1969/100 + 1969/400) * 86400

var (
	nanosPerSecond = big.NewInt(int64(time.Second))

	// Package-level initialization runs this after nanosPerSecond,
	// on which it depends through timeToNanos.
	maxTimeNanos = timeToNanos(time.Unix(math.MaxInt64-unixEpochSecs, 999999999))
)

func timeToNanos(t time.Time) *big.Int {
	n := big.NewInt(t.Unix())
	n.Mul(n, nanosPerSecond)
	return n.Add(n, big.NewInt(int64(t.Nanosecond())))
}

func nanosToTime(n *big.Int) time.Time {
	var secs, nanos big.Int
	secs.DivMod(n, nanosPerSecond, &nanos)
	return time.Unix(secs.Int64(), nanos.Int64())
}

func timeToInvNanos(t time.Time) *big.Int {
	n := timeToNanos(t)
	return n.Sub(maxTimeNanos, n)
}

func invNanosToTime(n *big.Int) time.Time {
	var inv big.Int
	inv.Sub(maxTimeNanos, n)
	return nanosToTime(&inv)
}

func nanosToStr(n *big.Int) string {
	return fmt.Sprintf("%0*s", invNanosWidth, n)
}

func strToNanos(s string) *big.Int {
	var n big.Int
	n.SetString(s, 10)
	return &n
}
