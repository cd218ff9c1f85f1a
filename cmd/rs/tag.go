package main

import (
	"context"
	"flag"
	"time"

	"github.com/pkg/errors"

	"github.com/bobg/rs"
)

func (c maincmd) tag(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var (
		refstr = fs.String("ref", "", "ref to assign to the tag")
		atstr  = fs.String("at", "", "timestamp for the assignment (default: now)")
	)
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}

	args = fs.Args()
	if len(args) == 0 {
		return errors.New("missing tag name")
	}
	if *refstr == "" {
		return errors.New("must supply -ref")
	}

	ref, err := rs.RefFromHex(*refstr)
	if err != nil {
		return errors.Wrapf(err, "decoding ref %s", *refstr)
	}

	at := time.Now()
	if *atstr != "" {
		at, err = parsetime(*atstr)
		if err != nil {
			return errors.Wrap(err, "parsing -at")
		}
	}

	err = c.s.PutTag(ctx, args[0], ref, at)
	return errors.Wrapf(err, "assigning tag %s to %s at time %s", args[0], ref, at)
}
