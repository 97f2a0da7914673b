package fsprobe

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// ReadTail opens a new, independent read handle on name, seeks to off, and
// reads exactly size bytes.
//
// If no bytes could be read at off, ReadTail returns ErrEmptyRead. If fewer
// than size bytes could be read, the bytes that were read are returned along
// with ErrShortRead. Any other error comes from the file system.
func ReadTail(o Opener, name string, off int64, size int) ([]byte, error) {
	f, err := o.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "open reader")
	}
	defer f.Close()

	if _, err := f.Seek(off, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "seek")
	}

	p := make([]byte, size)
	n, err := io.ReadFull(f, p)
	switch {
	case err == io.EOF:
		return nil, ErrEmptyRead
	case err == io.ErrUnexpectedEOF:
		return p[:n], ErrShortRead
	case err != nil:
		return nil, errors.Wrap(err, "read")
	}
	return p, nil
}

// RecordReader sequentially reads fixed-size records from a file.
//
// It is not safe to call a RecordReader from multiple goroutines.
//
// Example:
//
//	r, err := NewRecordReader(fsys, "settings.log", 4)
//	if err != nil {
//		...
//	}
//	defer r.Close()
//
//	for r.Next() {
//		fmt.Printf("%d: %q\n", r.Index(), r.Record())
//	}
//
//	if err := r.Error(); err != nil {
//		log.Println("error:", err)
//	}
type RecordReader struct {
	f   File
	br  *bufio.Reader
	rec []byte
	idx int // Index of the current record; -1 before the first call to Next.
	err error
}

// NewRecordReader opens name, and returns a *RecordReader that reads it in
// records of size bytes.
func NewRecordReader(o Opener, name string, size int) (*RecordReader, error) {
	if size <= 0 {
		return nil, errors.Errorf("invalid record size %d", size)
	}
	f, err := o.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "open reader")
	}
	return &RecordReader{
		f:   f,
		br:  bufio.NewReader(f),
		rec: make([]byte, size),
		idx: -1,
	}, nil
}

// Next reports whether another full record was read, and can be retrieved
// with the Record method.
//
// A false return value means the end of the file was reached, or an error
// occurred; a trailing partial record is reported by Error as ErrShortRead.
func (r *RecordReader) Next() bool {
	if r.err != nil {
		return false
	}
	n, err := io.ReadFull(r.br, r.rec)
	switch {
	case err == io.EOF:
		return false
	case err == io.ErrUnexpectedEOF:
		r.err = errors.Wrapf(ErrShortRead, "record %d: %d of %d bytes", r.idx+1, n, len(r.rec))
		return false
	case err != nil:
		r.err = errors.Wrap(err, "read record")
		return false
	}
	r.idx++
	return true
}

// Record returns the current record. The returned slice is only valid until
// the next call to Next.
func (r *RecordReader) Record() []byte {
	return r.rec
}

// Index returns the zero-based index of the current record.
func (r *RecordReader) Index() int {
	return r.idx
}

// Error returns the most-recent error encountered by the *RecordReader.
func (r *RecordReader) Error() error {
	if r.err != nil {
		return errors.Wrap(r.err, "record reader")
	}
	return nil
}

// Close closes the underlying file handle.
func (r *RecordReader) Close() error {
	return r.f.Close()
}
