package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/bobg/rs/split"
)

func (c maincmd) get(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var (
		tagname = fs.String("tag", "", "tag of blob or split tree to get")
		refstr  = fs.String("ref", "", "ref of blob or split tree to get")
		dosplit = fs.Bool("split", false, "get a split tree instead of a single blob")
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

	if *dosplit {
		return split.Read(ctx, c.s, ref, os.Stdout)
	}

	blob, err := c.s.Get(ctx, ref)
	if err != nil {
		return errors.Wrapf(err, "getting blob %s", ref)
	}
	_, err = os.Stdout.Write(blob)
	return errors.Wrap(err, "writing blob to stdout")
}

func (c maincmd) getTag(ctx context.Context, fs *flag.FlagSet, args []string) error {
	atstr := fs.String("at", "", "timestamp for tag (default: now)")
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}

	args = fs.Args()
	if len(args) == 0 {
		return errors.New("missing tag name")
	}

	at := time.Now()
	if *atstr != "" {
		at, err = parsetime(*atstr)
		if err != nil {
			return errors.Wrap(err, "parsing -at")
		}
	}

	ref, err := c.s.GetTag(ctx, args[0], at)
	if err != nil {
		return errors.Wrapf(err, "getting tag %s at time %s", args[0], at)
	}

	fmt.Printf("%s\n", ref)
	return nil
}
