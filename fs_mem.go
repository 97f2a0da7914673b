package fsprobe

import (
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// FaultKind identifies a misbehaviour a *MemFS can be told to inject.
type FaultKind int

const (
	// FaultShortWrite drops the last byte of a write, while still
	// reporting the full length as written.
	FaultShortWrite FaultKind = iota + 1

	// FaultDuplicateWrite appends the data of a write twice.
	FaultDuplicateWrite

	// FaultCorruptWrite flips the bits of the first byte of a write.
	FaultCorruptWrite

	// FaultStaleRead makes a read handle see an empty file, regardless of
	// what has been written.
	FaultStaleRead

	// FaultHandleLocalSync makes Datasync only cover the data written
	// through the syncing handle, and hides data that is not durable from
	// readers and from Size. It models a file system where durability is
	// a property of the descriptor rather than of the file.
	FaultHandleLocalSync
)

// Stats holds counters of the operations performed on a file of a *MemFS.
type Stats struct {
	Creates     int
	AppendOpens int
	WriteOpens  int
	ReadOpens   int
	Writes      int

	Syncs int
	// ForeignSyncs counts calls to Datasync made through a handle that had
	// not written anything.
	ForeignSyncs int
}

// MemFS is an FS implementation that only stores files in memory.
//
// Writes are immediately visible to every handle, as they would be through
// the page cache. A MemFS can be told to inject faults with InjectFault,
// which makes it a test double for file systems that lose, duplicate, or
// hide writes.
type MemFS struct {
	mu     sync.Mutex
	files  map[string]*memInode
	stats  map[string]*Stats
	faults []*fault

	nwrites, nreads, nsyncs int // Operation counters used to trigger faults.
}

type memInode struct {
	data    []byte
	durable int // Length of the prefix of data that has been synced.
}

type fault struct {
	kind FaultKind
	at   int
}

// NewMemFS returns an empty *MemFS.
func NewMemFS() *MemFS {
	return &MemFS{
		files: make(map[string]*memInode),
		stats: make(map[string]*Stats),
	}
}

// InjectFault arranges for the given fault to happen at the at-th
// operation it applies to, counted from 1 across the whole *MemFS: writes
// for FaultShortWrite, FaultDuplicateWrite and FaultCorruptWrite, read-handle
// opens for FaultStaleRead, and calls to Datasync for FaultHandleLocalSync.
//
// If at <= 0, the fault happens on every such operation.
func (m *MemFS) InjectFault(kind FaultKind, at int) {
	m.mu.Lock()
	m.faults = append(m.faults, &fault{kind: kind, at: at})
	m.mu.Unlock()
}

// under lock
func (m *MemFS) faulty(kind FaultKind, n int) bool {
	for _, f := range m.faults {
		if f.kind == kind && (f.at <= 0 || f.at == n) {
			return true
		}
	}
	return false
}

// under lock
func (m *MemFS) durableView() bool {
	for _, f := range m.faults {
		if f.kind == FaultHandleLocalSync {
			return true
		}
	}
	return false
}

// Stats returns a copy of the operation counters for name.
func (m *MemFS) Stats(name string) Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.stats[name]; ok {
		return *s
	}
	return Stats{}
}

// Bytes returns a copy of the contents of name, or nil if it does not exist.
func (m *MemFS) Bytes(name string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	ino, ok := m.files[name]
	if !ok {
		return nil
	}
	return append([]byte(nil), ino.data...)
}

// under lock
func (m *MemFS) stat(name string) *Stats {
	s, ok := m.stats[name]
	if !ok {
		s = new(Stats)
		m.stats[name] = s
	}
	return s
}

// under lock
func (m *MemFS) lookup(name string, create bool) (*memInode, error) {
	ino, ok := m.files[name]
	if !ok {
		if !create {
			return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
		}
		ino = new(memInode)
		m.files[name] = ino
	}
	return ino, nil
}

func (m *MemFS) OpenAppend(name string) (File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ino, _ := m.lookup(name, true)
	m.stat(name).AppendOpens++
	return &memFile{fs: m, ino: ino, name: name, mode: memAppend}, nil
}

func (m *MemFS) OpenWrite(name string) (File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ino, err := m.lookup(name, false)
	if err != nil {
		return nil, errors.Wrap(err, "open file")
	}
	m.stat(name).WriteOpens++
	return &memFile{fs: m, ino: ino, name: name, mode: memWrite}, nil
}

func (m *MemFS) Create(name string) (File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ino, _ := m.lookup(name, true)
	ino.data = ino.data[:0]
	ino.durable = 0
	m.stat(name).Creates++
	return &memFile{fs: m, ino: ino, name: name, mode: memWrite}, nil
}

func (m *MemFS) Open(name string) (File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ino, err := m.lookup(name, false)
	if err != nil {
		return nil, errors.Wrap(err, "open file")
	}
	m.nreads++
	m.stat(name).ReadOpens++
	return &memFile{
		fs:    m,
		ino:   ino,
		name:  name,
		mode:  memRead,
		stale: m.faulty(FaultStaleRead, m.nreads),
	}, nil
}

func (m *MemFS) Size(name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ino, ok := m.files[name]
	if !ok {
		return 0, errors.Wrap(&os.PathError{Op: "stat", Path: name, Err: os.ErrNotExist}, "stat")
	}
	if m.durableView() {
		return int64(ino.durable), nil
	}
	return int64(len(ino.data)), nil
}

func (m *MemFS) Remove(name string) error {
	m.mu.Lock()
	delete(m.files, name)
	m.mu.Unlock()
	return nil
}

type memMode int

const (
	memRead memMode = iota
	memWrite
	memAppend
)

var errBadDescriptor = errors.New("bad file descriptor")

// memFile is a handle on a memInode.
type memFile struct {
	fs     *MemFS
	ino    *memInode
	name   string
	mode   memMode
	pos    int64
	stale  bool // Set when FaultStaleRead was injected at open.
	wrote  bool
	end    int // End offset of the last write made through this handle.
	closed bool
}

func (f *memFile) Name() string {
	return f.name
}

func (f *memFile) Write(p []byte) (int, error) {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	if f.closed {
		return 0, os.ErrClosed
	}
	if f.mode == memRead {
		return 0, &os.PathError{Op: "write", Path: f.name, Err: errBadDescriptor}
	}
	if len(p) == 0 {
		return 0, nil
	}

	f.fs.nwrites++
	f.fs.stat(f.name).Writes++
	n := f.fs.nwrites

	data := append([]byte(nil), p...)
	switch {
	case f.fs.faulty(FaultShortWrite, n):
		data = data[:len(data)-1]
	case f.fs.faulty(FaultDuplicateWrite, n):
		data = append(data, p...)
	case f.fs.faulty(FaultCorruptWrite, n):
		data[0] = ^data[0]
	}

	if f.mode == memAppend {
		f.pos = int64(len(f.ino.data))
	}
	f.writeAt(data)
	f.wrote = true
	return len(p), nil
}

// under lock
func (f *memFile) writeAt(p []byte) {
	ino := f.ino
	end := int(f.pos) + len(p)
	if end > len(ino.data) {
		if end > cap(ino.data) {
			grown := make([]byte, len(ino.data), 2*end)
			copy(grown, ino.data)
			ino.data = grown
		}
		ino.data = ino.data[:end]
	}
	copy(ino.data[f.pos:], p)
	f.pos = int64(end)
	f.end = end
}

// under lock
func (f *memFile) view() []byte {
	if f.stale {
		return nil
	}
	if f.fs.durableView() {
		return f.ino.data[:f.ino.durable]
	}
	return f.ino.data
}

func (f *memFile) Read(p []byte) (int, error) {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	if f.closed {
		return 0, os.ErrClosed
	}
	if f.mode != memRead {
		return 0, &os.PathError{Op: "read", Path: f.name, Err: errBadDescriptor}
	}
	data := f.view()
	if f.pos >= int64(len(data)) {
		return 0, io.EOF
	}
	n := copy(p, data[f.pos:])
	f.pos += int64(n)
	return n, nil
}

func (f *memFile) Seek(offset int64, whence int) (int64, error) {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	if f.closed {
		return 0, os.ErrClosed
	}
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = f.pos + offset
	case io.SeekEnd:
		abs = int64(len(f.view())) + offset
	default:
		return 0, errors.Errorf("seek: invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, &os.PathError{Op: "seek", Path: f.name, Err: errors.New("negative position")}
	}
	f.pos = abs
	return abs, nil
}

func (f *memFile) Datasync() error {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	if f.closed {
		return os.ErrClosed
	}
	if f.mode == memRead {
		return &os.PathError{Op: "fdatasync", Path: f.name, Err: errBadDescriptor}
	}

	f.fs.nsyncs++
	s := f.fs.stat(f.name)
	s.Syncs++
	if !f.wrote {
		s.ForeignSyncs++
	}

	if f.fs.faulty(FaultHandleLocalSync, f.fs.nsyncs) {
		if f.wrote && f.end > f.ino.durable {
			f.ino.durable = f.end
		}
		return nil
	}
	f.ino.durable = len(f.ino.data)
	return nil
}

func (f *memFile) Close() error {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	if f.closed {
		return os.ErrClosed
	}
	f.closed = true
	return nil
}
