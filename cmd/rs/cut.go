package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/pkg/errors"

	"github.com/bobg/rs/rev"
)

func (c maincmd) cut(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var maxRefs, roots refsFlag
	fs.Var(&maxRefs, "max", "ref of a revision to include (may be repeated)")
	fs.Var(&roots, "root", "ref of a revision to stop at (may be repeated)")
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}

	if len(maxRefs) == 0 {
		return errors.New("must supply at least one -max")
	}

	g, err := c.revs().Cut(ctx, maxRefs, roots)
	if err != nil {
		return errors.Wrap(err, "computing cut")
	}

	return g.EachTopological(revLess, func(r *rev.Revision) error {
		fmt.Printf("%s\n", r.Ref())
		return nil
	})
}
