package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/pkg/errors"

	"github.com/bobg/rs/tree"
)

func (c maincmd) ls(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var (
		tagname = fs.String("tag", "", "tag of the tree to list")
		refstr  = fs.String("ref", "", "ref of the tree to list")
		atstr   = fs.String("at", "", "timestamp for tag (default: now)")
	)
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}

	ref, err := c.refFromFlags(ctx, *tagname, *refstr, *atstr)
	if err != nil {
		return err
	}

	t, err := tree.NewStore(c.s).TreeAt(ctx, ref)
	if err != nil {
		return errors.Wrapf(err, "loading tree at ref %s", ref)
	}

	for _, e := range t.Entries {
		if e.IsDir() {
			fmt.Printf("%s/ %s\n", e.Name, e.Ref)
		} else {
			fmt.Printf("%s %s\n", e.Name, e.Ref)
		}
	}

	return nil
}
