// Command gopngdecode is a thin CLI front end over gopng.Decode: decode
// <path> [--logging]. It is not part of the decoding core; it exists only
// to exercise the package from the command line.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"

	"github.com/xc-zero/gopng"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("gopngdecode", flag.ContinueOnError)
	fs.SetOutput(stderr)
	logging := fs.Bool("logging", false, "log decode progress to stderr")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	// flag stops at the first non-flag argument; parse again after the
	// path so "gopngdecode <path> --logging" works as well.
	rest := fs.Args()
	if len(rest) > 1 {
		if err := fs.Parse(rest[1:]); err != nil {
			return 1
		}
		rest = append([]string{rest[0]}, fs.Args()...)
	}
	if len(rest) != 1 {
		fmt.Fprintln(stderr, "usage: gopngdecode <path> [--logging]")
		return 1
	}
	path := rest[0]

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintln(stderr, errors.Wrap(err, "opening file"))
		return 1
	}
	defer f.Close()

	var opts []gopng.Option
	if *logging {
		opts = append(opts, gopng.WithLogger(slog.New(slog.NewTextHandler(stderr, nil))))
	}

	img, err := gopng.Decode(f, opts...)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	fmt.Fprintf(stdout, "%s: %dx%d color_type=%d bit_depth=%d\n",
		path, img.IHDR.Width, img.IHDR.Height, img.IHDR.ColorType, img.IHDR.BitDepth)
	return 0
}
