package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"

	wal "github.com/nesv/waltail"
)

// Build information.
var (
	Version = "(development build)"
)

func main() {
	m := NewMain()
	if err := m.Run(context.Background(), os.Args[1:]); errors.Is(err, flag.ErrHelp) {
		os.Exit(1)
	} else if err != nil {
		slog.Error("failed to run", "error", err)
		os.Exit(1)
	}
}

// Main represents the main program execution.
type Main struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewMain returns a new instance of Main.
func NewMain() *Main {
	return &Main{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run executes the program.
func (m *Main) Run(ctx context.Context, args []string) error {
	var cmd string
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "tail":
		return (&TailCommand{Stdout: m.Stdout}).Run(ctx, args)
	case "versions":
		return (&VersionsCommand{Stdout: m.Stdout}).Run(ctx, args)
	case "dump":
		return (&DumpCommand{Stdout: m.Stdout}).Run(ctx, args)
	case "archive":
		return (&ArchiveCommand{}).Run(ctx, args)
	case "version":
		fmt.Fprintln(m.Stdout, Version)
		return nil
	default:
		if cmd == "" || cmd == "help" || strings.HasPrefix(cmd, "-") {
			m.Usage()
			return flag.ErrHelp
		}
		return errors.Errorf("waltail %s: unknown command", cmd)
	}
}

// Usage prints the help screen to STDERR.
func (m *Main) Usage() {
	fmt.Fprintln(m.Stderr, `
waltail inspects the tail of a transaction log.

Usage:

	waltail <command> [arguments]

The commands are:

	tail        show the last checkpoint and whether recovery is needed
	versions    list log versions present in the log directory
	dump        print the entries of a single log version
	archive     compress a rotated log version
	version     prints the binary version
`[1:])
}

// logFlags holds the flags shared by every command that reads a log.
type logFlags struct {
	configPath  *string
	noExpandEnv *bool
	dir         *string
	prefix      *string
	force       *bool
}

func registerLogFlags(fs *flag.FlagSet) *logFlags {
	return &logFlags{
		configPath:  fs.String("config", "", "config path"),
		noExpandEnv: fs.Bool("no-expand-env", false, "do not expand env vars in config"),
		dir:         fs.String("dir", "", "log directory"),
		prefix:      fs.String("prefix", "", "log file name prefix"),
		force:       fs.Bool("force", false, "skip entries with unsupported format versions"),
	}
}

// config loads the config file, if any, and applies flag overrides.
func (f *logFlags) config() (Config, error) {
	config := DefaultConfig()
	if *f.configPath != "" {
		var err error
		if config, err = ReadConfigFile(*f.configPath, !*f.noExpandEnv); err != nil {
			return config, err
		}
	}
	if *f.dir != "" {
		config.Dir = *f.dir
	}
	if *f.prefix != "" {
		config.Prefix = *f.prefix
	}
	if *f.force {
		config.Force = true
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	initLog(os.Stderr, config.Logging.Level, config.Logging.Type)
	return config, nil
}

// openFileSet opens the log directory named by config. Commands that only
// read the log open it read-only, so they work on backups and snapshots.
func openFileSet(config Config, readOnly bool) (*wal.DirectoryFileSet, error) {
	if readOnly {
		return wal.OpenDirectoryFileSet(config.Dir, config.Prefix)
	}
	if _, err := os.Stat(config.Dir); err != nil {
		return nil, errors.Wrap(err, "log directory")
	}
	return wal.NewDirectoryFileSetPrefix(config.Dir, config.Prefix)
}

func initLog(w io.Writer, level, typ string) {
	logOptions := slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	// Read log level from environment, if available.
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level = v
	}

	switch strings.ToUpper(level) {
	case "DEBUG":
		logOptions.Level = slog.LevelDebug
	case "INFO":
		logOptions.Level = slog.LevelInfo
	case "WARN", "WARNING":
		logOptions.Level = slog.LevelWarn
	case "ERROR":
		logOptions.Level = slog.LevelError
	}

	var logHandler slog.Handler
	switch typ {
	case "json":
		logHandler = slog.NewJSONHandler(w, &logOptions)
	default:
		logHandler = slog.NewTextHandler(w, &logOptions)
	}

	slog.SetDefault(slog.New(logHandler))
}
