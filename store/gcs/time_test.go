package gcs

import (
	"math/big"
	"testing"
	"testing/quick"
	"time"
)

func TestInvTime(t *testing.T) {
	tests := []struct {
		name string
		fn   interface{}
	}{
		{
			name: "nanos round trip",
			fn: func(nanos int64) bool {
				tm := nanosToTime(big.NewInt(nanos))
				got := timeToNanos(tm)
				return got.Int64() == nanos
			},
		},
		{
			name: "string round trip",
			fn: func(secs, nsecs int64) bool {
				tm := randToTime(secs, nsecs)
				inv := timeToInvNanos(tm)
				invStr := nanosToStr(inv)
				inv2 := strToNanos(invStr)
				tm2 := invNanosToTime(inv2)
				return tm.Equal(tm2)
			},
		},
		{
			name: "ordering inverts",
			fn: func(s1, n1, s2, n2 int64) bool {
				t1 := randToTime(s1, n1)
				t2 := randToTime(s2, n2)
				invStr1 := nanosToStr(timeToInvNanos(t1))
				invStr2 := nanosToStr(timeToInvNanos(t2))
				if t1.Before(t2) {
					return invStr1 > invStr2
				}
				if t1.After(t2) {
					return invStr1 < invStr2
				}
				return invStr1 == invStr2
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := quick.Check(tt.fn, nil)
			if err != nil {
				t.Error(err)
			}
		})
	}
}

func randToTime(secs, nsecs int64) time.Time {
	nsecs %= int64(time.Second)
	return time.Unix(secs, nsecs)
}

func TestTagObjNames(t *testing.T) {
	var (
		name = "release"
		at   = time.Date(2021, 6, 17, 9, 30, 0, 123456789, time.UTC)
	)
	objName := tagObjName(name, at)
	gotName, gotAt, err := tagTimeFromObjName(objName)
	if err != nil {
		t.Fatal(err)
	}
	if gotName != name {
		t.Errorf("got name %s, want %s", gotName, name)
	}
	if !gotAt.Equal(at) {
		t.Errorf("got time %s, want %s", gotAt, at)
	}

	if _, _, err = tagTimeFromObjName("b:deadbeef"); err == nil {
		t.Error("got no error decoding a blob object name as a tag")
	}
}
