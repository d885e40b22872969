package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	wal "github.com/nesv/waltail"
)

// DumpCommand represents a command to print the entries of a log version.
type DumpCommand struct {
	Stdout io.Writer
}

// Run executes the command.
func (c *DumpCommand) Run(ctx context.Context, args []string) (err error) {
	fs := flag.NewFlagSet("waltail-dump", flag.ContinueOnError)
	lf := registerLogFlags(fs)
	fs.Usage = c.Usage
	if err := fs.Parse(args); err != nil {
		return err
	} else if fs.NArg() == 0 {
		return errors.New("log version required")
	} else if fs.NArg() > 1 {
		return errors.New("too many arguments")
	}
	version, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		return errors.Wrap(err, "parse log version")
	}

	config, err := lf.config()
	if err != nil {
		return err
	}
	files, err := openFileSet(config, true)
	if err != nil {
		return err
	}

	ch, err := files.Open(version)
	if err != nil {
		return err
	}
	defer func() {
		if e := ch.Close(); e != nil && err == nil {
			err = e
		}
	}()

	w := tabwriter.NewWriter(c.Stdout, 0, 8, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "position\tformat\ttype\tdetail")
	r := wal.NewEntryReader(ch, version)
	for r.Next() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Position(), r.Entry().FormatVersion(), describeEntry(r.Entry()))
	}
	if err := r.Error(); err != nil {
		fmt.Fprintf(w, "%s\t-\terror\t%v\n", r.NextPosition(), err)
	}
	return nil
}

func describeEntry(e wal.Entry) string {
	switch e := e.(type) {
	case wal.StartEntry:
		return fmt.Sprintf("start\tlast-committed=%s written=%s",
			fmtTxID(e.LastCommittedTxID), fmtMillis(e.TimeWritten))
	case wal.CommitEntry:
		return fmt.Sprintf("commit\ttx=%d written=%s", e.TxID, fmtMillis(e.TimeWritten))
	case wal.CheckpointEntry:
		return fmt.Sprintf("checkpoint\tposition=%s", e.Position)
	case wal.OtherEntry:
		return fmt.Sprintf("kind-%d\t%s", e.Kind, humanize.IBytes(uint64(len(e.Data))))
	}
	return "unknown\t"
}

func fmtMillis(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339Nano)
}

// Usage prints the help screen to STDOUT.
func (c *DumpCommand) Usage() {
	fmt.Fprintln(c.Stdout, `
The dump command prints every entry of a single log version, along with its
position. Reading stops at the first damaged record.

Usage:

	waltail dump [arguments] VERSION

Arguments:

	-config PATH
	    Specifies the configuration file.

	-dir PATH
	    Log directory. Overrides the configuration file.

	-prefix NAME
	    Log file name prefix. Defaults to "txlog".
`[1:])
}
