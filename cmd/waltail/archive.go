package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// ArchiveCommand represents a command to compress a rotated log version.
type ArchiveCommand struct{}

// Run executes the command.
func (c *ArchiveCommand) Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("waltail-archive", flag.ContinueOnError)
	lf := registerLogFlags(fs)
	fs.Usage = c.Usage
	if err := fs.Parse(args); err != nil {
		return err
	} else if fs.NArg() == 0 {
		return errors.New("log version required")
	}

	config, err := lf.config()
	if err != nil {
		return err
	}
	files, err := openFileSet(config, false)
	if err != nil {
		return err
	}

	for _, arg := range fs.Args() {
		version, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return errors.Wrap(err, "parse log version")
		}
		if err := files.Archive(version); err != nil {
			return err
		}
		slog.Info("archived log version", "version", version)
	}
	return nil
}

// Usage prints the help screen to STDERR.
func (c *ArchiveCommand) Usage() {
	fmt.Fprintln(os.Stderr, `
The archive command compresses rotated log versions with zstd. Archived
versions remain readable. The newest version cannot be archived.

Usage:

	waltail archive [arguments] VERSION...

Arguments:

	-config PATH
	    Specifies the configuration file.

	-dir PATH
	    Log directory. Overrides the configuration file.

	-prefix NAME
	    Log file name prefix. Defaults to "txlog".
`[1:])
}
