package fsprobe

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Datasync flushes the data of f, and the metadata needed to read it back,
// to stable storage. It blocks until the device reports the transfer as
// complete.
//
// Unlike a buffered writer's Flush, which only hands bytes to the kernel,
// Datasync is a durability barrier. Durability is a property of the file,
// not of the descriptor: syncing any writable descriptor of the file covers
// writes made through every other descriptor.
func Datasync(f *os.File) error {
	if err := unix.Fdatasync(int(f.Fd())); err != nil {
		return errors.Wrap(&os.PathError{Op: "fdatasync", Path: f.Name(), Err: err}, "datasync")
	}
	return nil
}
