package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/bobg/rs"
)

func (c maincmd) listRefs(ctx context.Context, fs *flag.FlagSet, args []string) error {
	start := fs.String("start", "", "start after this ref")
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}

	var startRef rs.Ref
	if *start != "" {
		startRef, err = rs.RefFromHex(*start)
		if err != nil {
			return errors.Wrap(err, "parsing start ref")
		}
	}

	return c.s.ListRefs(ctx, startRef, func(ref rs.Ref) error {
		fmt.Printf("%s\n", ref)
		return nil
	})
}

func (c maincmd) listTags(ctx context.Context, fs *flag.FlagSet, args []string) error {
	start := fs.String("start", "", "start after this tag name")
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}

	return c.s.ListTags(ctx, *start, func(name string, ref rs.Ref, at time.Time) error {
		fmt.Printf("%s %s %s\n", name, ref, at.UTC().Format(time.RFC3339Nano))
		return nil
	})
}
