//go:build !windows
// +build !windows

package fsprobe

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// checkDirPerms checks to see if name exists, is a directory, and that we
// have write permissions to it.
func checkDirPerms(name string) error {
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

	// Files get created in the directory, so we need write and search
	// permissions.
	if err := unix.Access(name, unix.W_OK|unix.X_OK); err != nil {
		return errors.Wrap(err, "check write permissions")
	}

	return nil
}
