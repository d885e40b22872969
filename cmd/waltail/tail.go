package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	wal "github.com/nesv/waltail"
	"github.com/nesv/waltail/walutil"
)

// TailCommand represents a command to compute the tail of a log.
type TailCommand struct {
	Stdout io.Writer
}

// Run executes the command.
func (c *TailCommand) Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("waltail-tail", flag.ContinueOnError)
	lf := registerLogFlags(fs)
	metrics := fs.Bool("metrics", false, "print metrics after the scan")
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

	reg := prometheus.NewRegistry()
	prom, err := walutil.NewPrometheusMonitor(reg)
	if err != nil {
		return err
	}
	scanner, err := wal.NewTailScanner(files,
		wal.Force(config.Force),
		wal.WithMonitor(walutil.MultiMonitor{
			walutil.LogMonitor{Logger: slog.Default()},
			prom,
		}),
	)
	if err != nil {
		return err
	}
	tail, err := scanner.TailInformation()
	if err != nil {
		return err
	}
	prom.ObserveTail(tail)

	w := tabwriter.NewWriter(c.Stdout, 0, 8, 2, ' ', 0)
	printTail(w, files.Dir(), tail)
	if err := w.Flush(); err != nil {
		return err
	}

	if *metrics {
		fmt.Fprintln(c.Stdout)
		return writeMetrics(c.Stdout, reg)
	}
	return nil
}

// writeMetrics writes every metric in reg in the Prometheus text format.
func writeMetrics(w io.Writer, reg prometheus.Gatherer) error {
	mfs, err := reg.Gather()
	if err != nil {
		return errors.Wrap(err, "gather metrics")
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrap(err, "write metrics")
		}
	}
	return nil
}

func printTail(w io.Writer, dir string, tail *wal.TailInformation) {
	fmt.Fprintf(w, "dir:\t%s\n", dir)
	fmt.Fprintf(w, "current version:\t%s\n", fmtVersion(tail.CurrentLogVersion()))
	fmt.Fprintf(w, "oldest version:\t%s\n", fmtVersion(tail.OldestLogVersionFound()))
	if cp, ok := tail.LastCheckpoint(); ok {
		fmt.Fprintf(w, "last checkpoint:\t%s (%s into version %d)\n",
			cp.Position, humanize.IBytes(uint64(cp.Position.Offset)), cp.Position.Version)
	} else {
		fmt.Fprintf(w, "last checkpoint:\tnone\n")
	}
	if start, ok := tail.LatestStart(); ok {
		fmt.Fprintf(w, "latest start:\t%s\n", start.StartPosition)
	} else {
		fmt.Fprintf(w, "latest start:\tnone\n")
	}
	fmt.Fprintf(w, "first tx after checkpoint:\t%s\n", fmtTxID(tail.FirstTxIDAfterLastCheckpoint()))
	fmt.Fprintf(w, "latest format:\t%s\n", tail.LatestFormatVersion())
	fmt.Fprintf(w, "corrupted:\t%t\n", tail.Corrupted())
	fmt.Fprintf(w, "recovery needed:\t%t\n", tail.CommitsAfterLastCheckpoint())
}

func fmtVersion(v int64) string {
	if v == wal.NoVersion {
		return "none"
	}
	return humanize.Comma(v)
}

func fmtTxID(id int64) string {
	if id == wal.NoTransactionID {
		return "none"
	}
	return humanize.Comma(id)
}

// Usage prints the help screen to STDOUT.
func (c *TailCommand) Usage() {
	fmt.Fprintln(c.Stdout, `
The tail command scans a transaction log backwards from its newest version,
and reports the last checkpoint, the first transaction committed after it,
and whether recovery would need to replay the log.

Usage:

	waltail tail [arguments]

Arguments:

	-config PATH
	    Specifies the configuration file.

	-no-expand-env
	    Disables environment variable expansion in configuration file.

	-dir PATH
	    Log directory. Overrides the configuration file.

	-prefix NAME
	    Log file name prefix. Defaults to "txlog".

	-force
	    Treat entries with unsupported format versions as corruption,
	    instead of failing. Part of the log may be lost.

	-metrics
	    Print the scan's metrics, in the Prometheus text format, after
	    the tail.
`[1:])
}
