package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/bobg/rs"
	"github.com/bobg/rs/split"
)

func (c maincmd) put(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var (
		tagname = fs.String("tag", "", "tag to assign to the added ref")
		dosplit = fs.Bool("split", false, "store stdin as a split tree instead of a single blob")
		atstr   = fs.String("at", "", "timestamp for tag (default: now)")
	)
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}

	var (
		ref   rs.Ref
		added bool
	)
	if *dosplit {
		ref, err = split.Write(ctx, c.s, os.Stdin)
		if err != nil {
			return errors.Wrap(err, "splitting stdin to store")
		}
	} else {
		blob, err := io.ReadAll(os.Stdin)
		if err != nil {
			return errors.Wrap(err, "reading stdin")
		}
		ref, added, err = c.s.Put(ctx, blob)
		if err != nil {
			return errors.Wrap(err, "storing blob")
		}
	}

	if *tagname != "" {
		at := time.Now()
		if *atstr != "" {
			at, err = parsetime(*atstr)
			if err != nil {
				return errors.Wrap(err, "parsing -at")
			}
		}

		err = c.s.PutTag(ctx, *tagname, ref, at)
		if err != nil {
			return errors.Wrapf(err, "assigning tag %s to blob %s at time %s", *tagname, ref, at)
		}
	}

	log.Printf("ref %s (added: %v)", ref, added)

	return nil
}
