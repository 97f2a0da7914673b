//go:build !linux
// +build !linux

package fsprobe

import (
	"os"

	"github.com/pkg/errors"
)

// Datasync falls back to a full fsync on platforms without fdatasync(2).
func Datasync(f *os.File) error {
	if err := f.Sync(); err != nil {
		return errors.Wrap(err, "datasync")
	}
	return nil
}
