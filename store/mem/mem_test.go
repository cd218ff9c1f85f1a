package mem

import (
	"context"
	"testing"

	"github.com/bobg/rs"
	"github.com/bobg/rs/testutil"
)

func TestStore(t *testing.T) {
	data := testutil.RandBytes(1, 1<<20)
	testutil.ReadWrite(context.Background(), t, New(), data)
}

func TestAllRefs(t *testing.T) {
	testutil.AllRefs(context.Background(), t, func() rs.Store { return New() })
}

func TestTags(t *testing.T) {
	testutil.Tags(context.Background(), t, New())
}

func TestHistory(t *testing.T) {
	testutil.History(context.Background(), t, New())
}
