package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	wal "github.com/nesv/waltail"
)

// writeLog writes two log versions to dir: the first ends with a checkpoint,
// the second holds a committed transaction.
func writeLog(t *testing.T, dir string) {
	t.Helper()
	files, err := wal.NewDirectoryFileSet(dir)
	require.NoError(t, err)
	w, err := wal.NewWriter(files)
	require.NoError(t, err)

	_, err = w.Start(wal.NoTransactionID)
	require.NoError(t, err)
	_, err = w.Commit(1)
	require.NoError(t, err)
	_, err = w.Checkpoint(w.Position())
	require.NoError(t, err)
	require.NoError(t, w.Rotate())
	_, err = w.Start(1)
	require.NoError(t, err)
	_, err = w.Commit(2)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func runMain(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	m := &Main{Stdout: &stdout, Stderr: &stderr}
	err := m.Run(context.Background(), args)
	return stdout.String(), err
}

func TestMain_Tail(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir)

	out, err := runMain(t, "tail", "-dir", dir)
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`current version:\s+1\n`), out)
	require.Regexp(t, regexp.MustCompile(`oldest version:\s+0\n`), out)
	require.Regexp(t, regexp.MustCompile(`last checkpoint:\s+0:\d+ `), out)
	require.Regexp(t, regexp.MustCompile(`first tx after checkpoint:\s+2\n`), out)
	require.Regexp(t, regexp.MustCompile(`corrupted:\s+false\n`), out)
	require.Regexp(t, regexp.MustCompile(`recovery needed:\s+true\n`), out)

	t.Run("Empty", func(t *testing.T) {
		out, err := runMain(t, "tail", "-dir", t.TempDir())
		require.NoError(t, err)
		require.Regexp(t, regexp.MustCompile(`last checkpoint:\s+none\n`), out)
		require.Regexp(t, regexp.MustCompile(`recovery needed:\s+false\n`), out)
	})

	t.Run("Metrics", func(t *testing.T) {
		out, err := runMain(t, "tail", "-dir", dir, "-metrics")
		require.NoError(t, err)
		require.Contains(t, out, "waltail_tail_current_log_version 1\n")
		require.Contains(t, out, "waltail_tail_oldest_log_version 0\n")
		require.Contains(t, out, "waltail_tail_replay_needed 1\n")
		require.Contains(t, out, "waltail_tail_corrupted_log_files_total 0\n")
	})

	t.Run("CorruptedMetrics", func(t *testing.T) {
		dir := t.TempDir()
		writeLog(t, dir)
		name := filepath.Join(dir, "txlog.1")
		p, err := os.ReadFile(name)
		require.NoError(t, err)
		p[len(p)-1] ^= 0xff
		require.NoError(t, os.WriteFile(name, p, 0644))

		out, err := runMain(t, "tail", "-dir", dir, "-metrics")
		require.NoError(t, err)
		require.Regexp(t, regexp.MustCompile(`corrupted:\s+true\n`), out)
		// Once by the backward scan, once by the forward one.
		require.Contains(t, out, "waltail_tail_corrupted_log_files_total 2\n")
	})

	t.Run("MissingDir", func(t *testing.T) {
		_, err := runMain(t, "tail", "-dir", filepath.Join(t.TempDir(), "nope"))
		require.Error(t, err)
	})

	t.Run("NoDir", func(t *testing.T) {
		_, err := runMain(t, "tail")
		require.True(t, errors.Is(err, ErrDirRequired))
	})
}

func TestMain_VersionsArchiveDump(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir)

	_, err := runMain(t, "archive", "-dir", dir, "1")
	require.True(t, errors.Is(err, wal.ErrArchiveActive))

	_, err = runMain(t, "archive", "-dir", dir, "0")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "txlog.0.zst"))
	require.NoError(t, err)

	out, err := runMain(t, "versions", "-dir", dir)
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`(?m)^0\s+\S+ \S+\s+true\s+`), out)
	require.Regexp(t, regexp.MustCompile(`(?m)^1\s+\S+ \S+\s+false\s+`), out)

	// Archived versions are still readable.
	out, err = runMain(t, "dump", "-dir", dir, "0")
	require.NoError(t, err)
	require.Contains(t, out, "start")
	require.Contains(t, out, "tx=1 ")
	require.Contains(t, out, "checkpoint")

	out, err = runMain(t, "tail", "-dir", dir)
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`first tx after checkpoint:\s+2\n`), out)

	_, err = runMain(t, "dump", "-dir", dir, "7")
	require.True(t, errors.Is(err, wal.ErrVersionNotFound))
}

func TestMain_Commands(t *testing.T) {
	out, err := runMain(t, "version")
	require.NoError(t, err)
	require.Equal(t, Version+"\n", out)

	_, err = runMain(t)
	require.Equal(t, flag.ErrHelp, err)

	_, err = runMain(t, "frobnicate")
	require.Error(t, err)
}
