package fsprobe

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// DirFS implements an FS backed by a directory on the local file system.
//
// All names passed to a DirFS are joined to its directory. Every method
// goes straight to the operating system: a DirFS keeps no state besides the
// directory path, and is safe for concurrent use.
type DirFS struct {
	dir string
}

// NewDirFS returns a *DirFS rooted at dir.
//
// The permissions of dir will be checked to ensure files can be created
// in it. If the directory does not exist, it will be created with mode 0777
// (before umask).
func NewDirFS(dir string) (*DirFS, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(err, "new directory fs")
	}
	if err := checkDirPerms(dir); err != nil && os.IsNotExist(errors.Cause(err)) {
		if err := os.MkdirAll(dir, 0777); err != nil {
			return nil, errors.Wrap(err, "mkdir all")
		}
	} else if err != nil {
		return nil, errors.Wrap(err, "new directory fs")
	}
	return &DirFS{dir: dir}, nil
}

// Dir returns the absolute path of the directory the *DirFS is rooted at.
func (d *DirFS) Dir() string {
	return d.dir
}

// Path returns the absolute path of name.
func (d *DirFS) Path(name string) string {
	return filepath.Join(d.dir, name)
}

// OpenAppend implements the Opener interface.
func (d *DirFS) OpenAppend(name string) (File, error) {
	return d.open(name, os.O_WRONLY|os.O_APPEND|os.O_CREATE)
}

// OpenWrite implements the Opener interface.
func (d *DirFS) OpenWrite(name string) (File, error) {
	return d.open(name, os.O_WRONLY)
}

// Create implements the Opener interface.
func (d *DirFS) Create(name string) (File, error) {
	return d.open(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
}

// Open implements the Opener interface.
func (d *DirFS) Open(name string) (File, error) {
	return d.open(name, os.O_RDONLY)
}

func (d *DirFS) open(name string, flag int) (File, error) {
	f, err := os.OpenFile(d.Path(name), flag, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "open file")
	}
	return &osFile{File: f, name: name}, nil
}

// Size implements the Inspector interface.
func (d *DirFS) Size(name string) (int64, error) {
	fi, err := os.Stat(d.Path(name))
	if err != nil {
		return 0, errors.Wrap(err, "stat")
	}
	return fi.Size(), nil
}

// Remove implements the FS interface.
func (d *DirFS) Remove(name string) error {
	if err := os.Remove(d.Path(name)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "rm")
	}
	return nil
}

// osFile adapts an *os.File to the File interface.
type osFile struct {
	*os.File
	name string
}

func (f *osFile) Name() string {
	return f.name
}

func (f *osFile) Datasync() error {
	return Datasync(f.File)
}
