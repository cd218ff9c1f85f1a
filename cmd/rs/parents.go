package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/pkg/errors"
)

func (c maincmd) parents(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var (
		tagname = fs.String("tag", "", "tag of the revision")
		refstr  = fs.String("ref", "", "ref of the revision")
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

	r, err := c.revs().Get(ctx, ref)
	if err != nil {
		return errors.Wrapf(err, "getting revision %s", ref)
	}

	for _, p := range r.Parents {
		fmt.Printf("%s\n", p)
	}
	return nil
}
