package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/bobg/rs"
	"github.com/bobg/rs/split"
)

func (c maincmd) tree(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var (
		tagname = fs.String("tag", "", "tag of the split tree to dump")
		refstr  = fs.String("ref", "", "ref of the split tree to dump")
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

	return doTree(ctx, c.s, ref, 0)
}

func doTree(ctx context.Context, g rs.Getter, ref rs.Ref, depth int) error {
	b, err := g.Get(ctx, ref)
	if err != nil {
		return errors.Wrapf(err, "getting split node %s", ref)
	}
	var tn split.Node
	err = tn.Decode(b)
	if err != nil {
		return errors.Wrapf(err, "decoding split node %s", ref)
	}

	indent := strings.Repeat("  ", depth)
	fmt.Printf("%ssize: %d\n", indent, tn.Size)
	if len(tn.Nodes) > 0 {
		fmt.Printf("%snodes:\n", indent)
		for _, subref := range tn.Nodes {
			fmt.Printf("%s %s:\n", indent, subref)
			err = doTree(ctx, g, subref, depth+1)
			if err != nil {
				return err
			}
		}
	} else {
		fmt.Printf("%sleaves:\n", indent)
		for _, l := range tn.Leaves {
			fmt.Printf("%s %s\n", indent, l)
		}
	}
	return nil
}
