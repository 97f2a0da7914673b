package fsprobe

import "io"

// File is an open handle on a file within an FS.
//
// Handles returned by FS.OpenAppend, FS.OpenWrite and FS.Create are
// write-only; handles returned by FS.Open are read-only. Calling a method
// the handle was not opened for returns an error, the same way *os.File
// does.
type File interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer

	// Datasync blocks until the data written to the underlying file (through
	// any handle) is durable, without necessarily flushing metadata that is
	// not required to read the data back. On Linux this is fdatasync(2).
	Datasync() error

	// Name returns the name the handle was opened with.
	Name() string
}

// FS defines the interface of a type that can open handles on, and
// inspect, files by name.
//
// Names are relative to the root of the FS. An FS does not keep track of the
// handles it hands out: every handle is owned by whoever opened it.
type FS interface {
	Opener
	Inspector

	// Remove deletes the named file. Removing a file that does not exist
	// is not an error.
	Remove(name string) error
}

// Opener defines the interface of a type that can open file handles.
type Opener interface {
	// OpenAppend opens name for appending, creating it if it does not
	// exist.
	OpenAppend(name string) (File, error)

	// OpenWrite opens an existing file for writing, without appending,
	// creating or truncating it.
	OpenWrite(name string) (File, error)

	// Create creates name, truncating it if it already exists, and opens
	// it for writing.
	Create(name string) (File, error)

	// Open opens name for reading.
	Open(name string) (File, error)
}

// Inspector defines the interface of a type that can look up file metadata.
type Inspector interface {
	// Size returns the length of the named file, in bytes, as reported by
	// a metadata lookup on the path (not on any open handle).
	Size(name string) (int64, error)
}
