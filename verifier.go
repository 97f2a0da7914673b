package fsprobe

import (
	"bytes"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

const (
	// DefaultIterations is the number of iterations of a run, unless
	// changed with the Iterations option.
	DefaultIterations = 10000

	// DefaultPath is the name of the file verification runs append to.
	DefaultPath = "settings.log"
)

// DefaultPayload is the record appended by every iteration, unless changed
// with the Payload option.
var DefaultPayload = []byte("test")

// Topology describes which handles a *Verifier writes and syncs through.
type Topology int

const (
	// SingleHandle opens one append handle at the first iteration, and
	// writes and syncs through it for the whole run.
	SingleHandle Topology = iota

	// SingleHandleReopen opens a new append handle at the start of every
	// iteration, writes and syncs through it, and closes it at the end of
	// the iteration.
	SingleHandleReopen

	// SplitHandle opens a write handle and a sync handle before the first
	// iteration. Data is only ever written through the write handle, and
	// only ever synced through the sync handle.
	SplitHandle
)

var topologyNames = map[Topology]string{
	SingleHandle:       "single",
	SingleHandleReopen: "reopen",
	SplitHandle:        "split",
}

// Topologies lists every topology, in the order the driver runs them.
var Topologies = []Topology{SingleHandleReopen, SingleHandle, SplitHandle}

func (t Topology) String() string {
	if s, ok := topologyNames[t]; ok {
		return s
	}
	return "unknown"
}

// MarshalText implements the encoding.TextMarshaler interface.
func (t Topology) MarshalText() ([]byte, error) {
	if _, ok := topologyNames[t]; !ok {
		return nil, errors.Errorf("unknown topology %d", int(t))
	}
	return []byte(t.String()), nil
}

// ParseTopology returns the topology named s.
func ParseTopology(s string) (Topology, error) {
	for t, name := range topologyNames {
		if name == s {
			return t, nil
		}
	}
	return 0, errors.Errorf("unknown topology %q", s)
}

// Result summarizes a run in which every iteration passed.
type Result struct {
	Path       string        `json:"path"`
	Topology   Topology      `json:"topology"`
	Iterations int           `json:"iterations"`
	Bytes      int64         `json:"bytes"`
	Elapsed    time.Duration `json:"elapsed_ns"`
}

// Verifier repeatedly appends a payload to a file, forces it to stable
// storage, and then checks, through a handle of its own, that the file has
// exactly the expected length and ends with the payload.
//
// Iterations are strictly sequential: iteration i+1 never starts before all
// of the assertions of iteration i have passed. The first failure ends the
// run.
//
// A Verifier must not be used from multiple goroutines, with the exception
// of the Progress method. Only one Verifier may run against a given file at
// a time.
type Verifier struct {
	fs         FS
	path       string
	payload    []byte
	iterations int
	topology   Topology
	onIter     func(State)

	state  State
	done   atomic.Int64 // Completed iterations, for Progress.
	writer File
	syncer File // Only used by SplitHandle.
}

// NewVerifier creates a *Verifier that runs against the file path within
// fsys.
func NewVerifier(fsys FS, path string, options ...Option) (*Verifier, error) {
	if fsys == nil {
		return nil, errors.New("nil fs")
	}
	if path == "" {
		return nil, errors.New("empty path")
	}
	v := &Verifier{
		fs:         fsys,
		path:       path,
		payload:    DefaultPayload,
		iterations: DefaultIterations,
		topology:   SingleHandle,
		state:      NewState(path),
	}
	for _, option := range options {
		if err := option(v); err != nil {
			return nil, errors.Wrap(err, "applying option")
		}
	}
	return v, nil
}

// Topology returns the handle topology of the *Verifier.
func (v *Verifier) Topology() Topology {
	return v.topology
}

// State returns the state reached by the most recent run.
func (v *Verifier) State() State {
	return v.state
}

// Progress returns the number of completed iterations of the current run,
// and the number of iterations the run will perform.
//
// Unlike other methods, Progress may be called while Run is executing in
// another goroutine.
func (v *Verifier) Progress() (done, total int) {
	return int(v.done.Load()), v.iterations
}

// Run removes the file, then performs every iteration.
//
// A failed iteration is reported as a *VerifyError. No partial result is
// ever returned: either every iteration passed, or the run failed.
func (v *Verifier) Run() (*Result, error) {
	v.state = NewState(v.path)
	v.done.Store(0)

	if err := v.fs.Remove(v.path); err != nil {
		return nil, v.ioErr("remove", err)
	}

	glog.Infof("verifying %s: topology=%s iterations=%d payload=%dB",
		v.path, v.topology, v.iterations, len(v.payload))

	start := time.Now()
	if err := v.open(); err != nil {
		return nil, err
	}
	for v.state.Iteration < v.iterations {
		if err := v.step(); err != nil {
			v.closeAll()
			return nil, err
		}
	}
	if err := v.closeAll(); err != nil {
		return nil, v.ioErr("close", err)
	}
	elapsed := time.Since(start)

	glog.Infof("verified %s: %d iterations in %v", v.path, v.state.Iteration, elapsed)
	return &Result{
		Path:       v.path,
		Topology:   v.topology,
		Iterations: v.state.Iteration,
		Bytes:      v.state.Expected,
		Elapsed:    elapsed,
	}, nil
}

// open opens the handles that live for the whole run.
func (v *Verifier) open() error {
	if v.topology != SplitHandle {
		return nil
	}
	w, err := v.fs.OpenAppend(v.path)
	if err != nil {
		return v.ioErr("open writer", err)
	}
	// The sync handle neither creates nor appends; the write handle has
	// already created the file.
	s, err := v.fs.OpenWrite(v.path)
	if err != nil {
		w.Close()
		return v.ioErr("open syncer", err)
	}
	v.writer, v.syncer = w, s
	return nil
}

// step performs a single iteration.
func (v *Verifier) step() error {
	if v.writer == nil {
		w, err := v.fs.OpenAppend(v.path)
		if err != nil {
			return v.ioErr("open writer", err)
		}
		v.writer = w
	}

	if n, err := v.writer.Write(v.payload); err != nil {
		return v.ioErr("write", err)
	} else if n != len(v.payload) {
		return v.ioErr("write", errors.Errorf("short write: %d of %d bytes", n, len(v.payload)))
	}

	syncer := v.writer
	if v.topology == SplitHandle {
		syncer = v.syncer
	}
	if err := syncer.Datasync(); err != nil {
		return v.ioErr("datasync", err)
	}

	next := v.state.Next(len(v.payload))
	if err := v.check(next); err != nil {
		return err
	}

	if v.topology == SingleHandleReopen {
		w := v.writer
		v.writer = nil
		if err := w.Close(); err != nil {
			return v.ioErr("close writer", err)
		}
	}

	v.state = next
	v.done.Store(int64(next.Iteration))
	if glog.V(2) {
		glog.Infof("iteration %d ok: %s", next.Iteration-1, next)
	}
	if v.onIter != nil {
		v.onIter(next)
	}
	return nil
}

// check asserts that the file is in state next: a metadata lookup must
// report next.Expected bytes, and a new read handle must find the payload
// at the end of the file.
func (v *Verifier) check(next State) error {
	size, err := v.fs.Size(v.path)
	if err != nil {
		return v.ioErr("stat", err)
	}
	if size != next.Expected {
		return v.violation(ErrLengthMismatch, next.Expected, size)
	}

	tail, err := ReadTail(v.fs, v.path, next.TailOffset(len(v.payload)), len(v.payload))
	switch kindOf(err) {
	case KindIO:
		if err != nil {
			return v.ioErr("read", err)
		}
	case KindEmptyRead:
		return v.violation(ErrEmptyRead, len(v.payload), 0)
	case KindShortRead:
		return v.violation(ErrShortRead, len(v.payload), len(tail))
	}
	if !bytes.Equal(tail, v.payload) {
		return v.violation(ErrContentMismatch, v.payload, tail)
	}
	return nil
}

// closeAll closes every handle that is still open, and returns the first
// error encountered.
func (v *Verifier) closeAll() error {
	var first error
	for _, f := range []*File{&v.writer, &v.syncer} {
		if *f == nil {
			continue
		}
		if err := (*f).Close(); err != nil && first == nil {
			first = err
		}
		*f = nil
	}
	return first
}

func (v *Verifier) ioErr(op string, err error) error {
	return &VerifyError{
		Kind:      KindIO,
		Iteration: v.state.Iteration,
		Path:      v.path,
		Op:        op,
		Err:       err,
	}
}

func (v *Verifier) violation(sentinel error, expected, actual interface{}) error {
	return &VerifyError{
		Kind:      kindOf(sentinel),
		Iteration: v.state.Iteration,
		Path:      v.path,
		Op:        "verify",
		Expected:  expected,
		Actual:    actual,
		Err:       sentinel,
	}
}
