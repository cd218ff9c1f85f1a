package main

import (
	"context"
	"flag"

	"github.com/pkg/errors"

	"github.com/bobg/rs"
	"github.com/bobg/rs/store"
)

func (c maincmd) sync(ctx context.Context, fs *flag.FlagSet, args []string) error {
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}

	args = fs.Args()
	if len(args) == 0 {
		return errors.New("missing config files of stores to sync with")
	}

	stores := []rs.Store{c.s}
	for _, arg := range args {
		s, err := storeFromConfig(ctx, arg)
		if err != nil {
			return errors.Wrapf(err, "reading %s", arg)
		}
		stores = append(stores, s)
	}

	return store.Sync(ctx, stores)
}
