package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

// VersionsCommand represents a command to list the versions of a log.
type VersionsCommand struct {
	Stdout io.Writer
}

// Run executes the command.
func (c *VersionsCommand) Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("waltail-versions", flag.ContinueOnError)
	lf := registerLogFlags(fs)
	fs.Usage = c.Usage
	if err := fs.Parse(args); err != nil {
		return err
	} else if fs.NArg() > 0 {
		return errors.New("too many arguments")
	}

	config, err := lf.config()
	if err != nil {
		return err
	}
	files, err := openFileSet(config, true)
	if err != nil {
		return err
	}
	infos, err := files.Versions()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.Stdout, 0, 8, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "version\tsize\tarchived\tpath")
	for _, info := range infos {
		fmt.Fprintf(w, "%d\t%s\t%t\t%s\n",
			info.Version,
			humanize.IBytes(uint64(info.Size)),
			info.Archived,
			info.Path,
		)
	}
	return nil
}

// Usage prints the help screen to STDOUT.
func (c *VersionsCommand) Usage() {
	fmt.Fprintln(c.Stdout, `
The versions command lists the log versions found in the log directory.

Usage:

	waltail versions [arguments]

Arguments:

	-config PATH
	    Specifies the configuration file.

	-dir PATH
	    Log directory. Overrides the configuration file.

	-prefix NAME
	    Log file name prefix. Defaults to "txlog".
`[1:])
}
