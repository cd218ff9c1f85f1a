package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/pkg/errors"

	"github.com/bobg/rs"
	"github.com/bobg/rs/rev"
)

func (c maincmd) log(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var (
		tagname = fs.String("tag", "", "tag of the revision to log from")
		refstr  = fs.String("ref", "", "ref of the revision to log from")
		atstr   = fs.String("at", "", "timestamp for tag (default: now)")
		roots   refsFlag
	)
	fs.Var(&roots, "root", "ref of a revision to stop at (may be repeated)")
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}

	ref, err := c.refFromFlags(ctx, *tagname, *refstr, *atstr)
	if err != nil {
		return err
	}

	g, err := c.revs().Cut(ctx, []rs.Ref{ref}, roots)
	if err != nil {
		return errors.Wrap(err, "computing history")
	}

	return g.EachTopological(revLess, func(r *rev.Revision) error {
		fmt.Printf("revision %s\n", r.Ref())
		if r.Tree != nil {
			fmt.Printf("  tree %s\n", *r.Tree)
		}
		for _, p := range r.Parents {
			fmt.Printf("  parent %s\n", p)
		}
		return nil
	})
}

// revLess breaks topological-order ties by ref.
func revLess(a, b *rev.Revision) bool {
	return a.Ref().Less(b.Ref())
}
