package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/bobg/rs"
	"github.com/bobg/rs/split"
	"github.com/bobg/rs/tree"
)

func (c maincmd) ingest(ctx context.Context, fs *flag.FlagSet, args []string) error {
	var (
		tagname = fs.String("tag", "", "tag to assign to the ingested ref")
		atstr   = fs.String("at", "", "timestamp for tag (default: now)")
	)
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}

	args = fs.Args()
	if len(args) == 0 {
		return errors.New("missing path to ingest")
	}

	ref, err := ingestPath(ctx, c.s, args[0])
	if err != nil {
		return errors.Wrapf(err, "ingesting %s", args[0])
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
			return errors.Wrapf(err, "assigning tag %s to %s at time %s", *tagname, ref, at)
		}
	}

	fmt.Printf("%s\n", ref)
	return nil
}

// ingestPath stores the file or directory at path and returns its ref:
// the root of a split tree for a plain file,
// a tree ref for a directory.
func ingestPath(ctx context.Context, s rs.Store, path string) (rs.Ref, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return rs.Zero, errors.Wrapf(err, "statting %s", path)
	}

	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return rs.Zero, errors.Wrapf(err, "reading dir %s", path)
		}

		var t tree.Tree
		for _, entry := range entries {
			ref, err := ingestPath(ctx, s, filepath.Join(path, entry.Name()))
			if err != nil {
				return rs.Zero, err
			}
			subinfo, err := entry.Info()
			if err != nil {
				return rs.Zero, errors.Wrapf(err, "statting %s", entry.Name())
			}
			t.Add(tree.Entry{Name: entry.Name(), Ref: ref, Mode: uint32(subinfo.Mode())})
		}

		ref, _, err := tree.NewStore(s).Put(ctx, &t)
		return ref, err
	}

	if !info.Mode().IsRegular() {
		return rs.Zero, errors.Errorf("%s is not a regular file or directory", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return rs.Zero, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	ref, err := split.Write(ctx, s, f)
	return ref, errors.Wrapf(err, "splitting %s", path)
}
