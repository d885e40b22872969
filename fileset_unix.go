//go:build !windows

package wal

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// checkDirPerms checks to see if name exists, is a directory, and that we
// have read (and, if write is true, write) permissions to it.
func checkDirPerms(name string, write bool) error {
	// Try to stat the path. If we can't get any info from it, this
	// usually means the path doesn't exist, or that we do not have
	// read access.
	fi, err := os.Stat(name)
	if err != nil {
		return errors.Wrap(err, "stat")
	}

	if !fi.IsDir() {
		return errors.Errorf("%s is not a directory", name)
	}

	// Log files are listed and read during recovery, and appended to
	// afterwards.
	mode := uint32(unix.R_OK | unix.X_OK)
	if write {
		mode |= unix.W_OK
	}
	if err := unix.Access(name, mode); err != nil {
		return errors.Wrap(err, "check permissions")
	}

	return nil
}
