//go:build windows

package wal

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

func checkDirPerms(name string, write bool) error {
	fi, err := os.Stat(name)
	if err != nil {
		return errors.Wrap(err, "stat")
	}

	if !fi.IsDir() {
		return errors.Errorf("%s is not a directory", name)
	}
	if !write {
		return nil
	}

	// Attempt to write a file, and remove it before returning.
	testFile := filepath.Join(name, "waltailwrchk")
	f, err := os.Create(testFile)
	if err != nil {
		return errors.Wrap(err, "no write perms?")
	}
	f.Close()
	os.Remove(testFile)
	return nil
}
