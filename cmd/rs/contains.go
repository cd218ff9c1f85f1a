package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/pkg/errors"

	"github.com/bobg/rs"
)

func (c maincmd) contains(ctx context.Context, fs *flag.FlagSet, args []string) error {
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}

	args = fs.Args()
	if len(args) == 0 {
		return errors.New("missing ref")
	}

	ref, err := rs.RefFromHex(args[0])
	if err != nil {
		return errors.Wrapf(err, "decoding ref %s", args[0])
	}

	ok, err := c.s.Contains(ctx, ref)
	if err != nil {
		return errors.Wrapf(err, "checking for blob %s", ref)
	}

	fmt.Println(ok)
	return nil
}
