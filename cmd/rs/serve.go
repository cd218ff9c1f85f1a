package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"

	"github.com/pkg/errors"

	"github.com/bobg/rs/store/remote"
)

func (c maincmd) serve(_ context.Context, fs *flag.FlagSet, args []string) error {
	addr := fs.String("addr", "localhost:2969", "address to listen on")
	err := fs.Parse(args)
	if err != nil {
		return errors.Wrap(err, "parsing args")
	}

	lis, err := net.Listen("tcp", *addr)
	if err != nil {
		return errors.Wrapf(err, "listening on %s", *addr)
	}
	defer lis.Close()

	fmt.Printf("Listening on %s\n", lis.Addr())

	srv := &http.Server{Handler: remote.NewHandler(c.s)}
	return srv.Serve(lis)
}
