package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/bobg/rs"
)

func (c maincmd) commit(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var (
		treestr = fs.String("tree", "", "ref of the tree to record (empty for no tree)")
		tagname = fs.String("tag", "", "tag to assign to the new revision")
		atstr   = fs.String("at", "", "timestamp for tag (default: now)")
		parents refsFlag
	)
	fs.Var(&parents, "parent", "ref of a parent revision (may be repeated)")
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}

	var treeRef *rs.Ref
	if *treestr != "" {
		ref, err := rs.RefFromHex(*treestr)
		if err != nil {
			return errors.Wrapf(err, "decoding tree ref %s", *treestr)
		}
		treeRef = &ref
	}

	ref, err := c.revs().Create(ctx, treeRef, parents)
	if err != nil {
		return errors.Wrap(err, "creating revision")
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
			return errors.Wrapf(err, "assigning tag %s to revision %s at time %s", *tagname, ref, at)
		}
	}

	fmt.Printf("%s\n", ref)
	return nil
}
