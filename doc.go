// Package fsprobe checks, empirically, that data appended to a file and
// forced to stable storage with fdatasync(2) is immediately visible, and at
// the right offset, to a handle that had nothing to do with the write.
//
// The check is performed by a Verifier. Every iteration of a run appends a
// small payload to a file, calls Datasync, looks the file's length up by
// path, and reads the end of the file back through a freshly-opened handle.
// The first iteration whose length or content is off ends the run with a
// *VerifyError identifying the iteration, and the expected and actual
// values.
//
// A Verifier can write and sync through the same handle, kept open for the
// whole run (SingleHandle) or reopened every iteration (SingleHandleReopen),
// or write through one handle and sync through another (SplitHandle). The
// latter demonstrates that durability is a property of the file, and not of
// the descriptor that wrote to it.
//
// Files are accessed through the FS interface. This package provides an FS
// backed by a local directory, DirFS, and an in-memory one, MemFS, that can
// inject the faults a Verifier is meant to catch.
//
// For periodic progress reports of a running Verifier, see the
// fsprobe/fsprobeutil package. For timing buffered and unbuffered write
// strategies against each other, see the fsprobe/bench package.
package fsprobe
