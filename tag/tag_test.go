package tag

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bobg/rs"
)

func TestFind(t *testing.T) {
	t1, err := time.Parse(time.RFC3339, "1977-08-05T13:00:00-04:00")
	if err != nil {
		t.Fatal(err)
	}
	t2 := t1.Add(time.Hour)

	r1 := rs.Ref{1}
	r2 := rs.Ref{2}

	cases := []struct {
		pairs   []TimeRef
		at      time.Time
		want    rs.Ref
		wantErr error
	}{
		{
			at:      t1,
			wantErr: rs.ErrNotFound,
		},
		{
			pairs: []TimeRef{{T: t1, R: r1}},
			at:    t1,
			want:  r1,
		},
		{
			pairs:   []TimeRef{{T: t1, R: r1}},
			at:      t1.Add(-time.Minute),
			wantErr: rs.ErrNotFound,
		},
		{
			pairs: []TimeRef{{T: t1, R: r1}},
			at:    t1.Add(time.Minute),
			want:  r1,
		},
		{
			pairs: []TimeRef{{T: t1, R: r1}, {T: t2, R: r2}},
			at:    t1,
			want:  r1,
		},
		{
			pairs:   []TimeRef{{T: t1, R: r1}, {T: t2, R: r2}},
			at:      t1.Add(-time.Minute),
			wantErr: rs.ErrNotFound,
		},
		{
			pairs: []TimeRef{{T: t1, R: r1}, {T: t2, R: r2}},
			at:    t1.Add(time.Minute),
			want:  r1,
		},
		{
			pairs: []TimeRef{{T: t1, R: r1}, {T: t2, R: r2}},
			at:    t2,
			want:  r2,
		},
		{
			pairs: []TimeRef{{T: t1, R: r1}, {T: t2, R: r2}},
			at:    t2.Add(time.Minute),
			want:  r2,
		},
	}

	for i, tc := range cases {
		t.Run(fmt.Sprintf("case_%02d", i+1), func(t *testing.T) {
			got, err := Find(tc.pairs, tc.at)
			switch {
			case tc.wantErr != nil:
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("got error %v, want %v", err, tc.wantErr)
				}
			case err != nil:
				t.Errorf("got error %v, want no error", err)
			case got != tc.want:
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
}
