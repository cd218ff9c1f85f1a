// Command rs is a general purpose CLI interface to revision stores.
package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"github.com/bobg/subcmd"
	"github.com/pkg/errors"

	"github.com/bobg/rs"
	"github.com/bobg/rs/rev"
	_ "github.com/bobg/rs/store/bt"
	_ "github.com/bobg/rs/store/file"
	_ "github.com/bobg/rs/store/gcs"
	_ "github.com/bobg/rs/store/logging"
	_ "github.com/bobg/rs/store/lru"
	_ "github.com/bobg/rs/store/mem"
	_ "github.com/bobg/rs/store/pg"
	_ "github.com/bobg/rs/store/replica"
	_ "github.com/bobg/rs/store/sqlite3"
	"github.com/bobg/rs/tag"
	"github.com/bobg/rs/tree"
)

type maincmd struct {
	s tag.Store
}

func main() {
	config := flag.String("config", "rsconf.json", "path to config file")
	flag.Parse()

	if *config == "" {
		log.Fatal("Config value not set")
	}

	ctx := context.Background()

	s, err := storeFromConfig(ctx, *config)
	if err != nil {
		log.Fatalf("Creating store: %s", err)
	}
	ss, ok := s.(tag.Store)
	if !ok {
		log.Fatal("not a tag store")
	}

	err = subcmd.Run(ctx, maincmd{s: ss}, flag.Args())
	if err != nil {
		log.Fatal(err)
	}
}

func (c maincmd) Subcmds() map[string]subcmd.Subcmd {
	return map[string]subcmd.Subcmd{
		"commit":    c.commit,
		"contains":  c.contains,
		"cut":       c.cut,
		"get":       c.get,
		"get-tag":   c.getTag,
		"ingest":    c.ingest,
		"list-refs": c.listRefs,
		"list-tags": c.listTags,
		"log":       c.log,
		"ls":        c.ls,
		"parents":   c.parents,
		"put":       c.put,
		"serve":     c.serve,
		"sync":      c.sync,
		"tag":       c.tag,
		"tree":      c.tree,
	}
}

// revs produces a revision store over the blob store in c.
func (c maincmd) revs() *rev.Store {
	return rev.New(c.s, tree.NewStore(c.s))
}

// refFromFlags resolves the mutually exclusive -tag and -ref flags to a ref.
func (c maincmd) refFromFlags(ctx context.Context, tagname, refstr, atstr string) (rs.Ref, error) {
	if (tagname == "" && refstr == "") || (tagname != "" && refstr != "") {
		return rs.Zero, errors.New("must supply one of -tag or -ref")
	}

	if tagname != "" {
		at := time.Now()
		if atstr != "" {
			var err error
			at, err = parsetime(atstr)
			if err != nil {
				return rs.Zero, errors.Wrap(err, "parsing -at")
			}
		}
		ref, err := c.s.GetTag(ctx, tagname, at)
		return ref, errors.Wrapf(err, "getting tag %s at time %s", tagname, at)
	}

	ref, err := rs.RefFromHex(refstr)
	return ref, errors.Wrapf(err, "decoding ref %s", refstr)
}

// refsFlag collects refs from a repeatable flag.
type refsFlag []rs.Ref

func (f *refsFlag) String() string {
	strs := make([]string, 0, len(*f))
	for _, ref := range *f {
		strs = append(strs, ref.String())
	}
	return strings.Join(strs, ",")
}

func (f *refsFlag) Set(s string) error {
	ref, err := rs.RefFromHex(s)
	if err != nil {
		return err
	}
	*f = append(*f, ref)
	return nil
}

var layouts = []string{
	time.RFC3339Nano, time.RFC3339, time.ANSIC, time.UnixDate,
}

func parsetime(s string) (time.Time, error) {
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil { // sic
			return t, nil
		}
	}
	return time.Time{}, errors.New("could not parse time")
}
