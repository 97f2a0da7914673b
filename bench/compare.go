package bench

import (
	"bytes"
	"io"

	"github.com/OneOfOne/xxhash"
	"github.com/nesv/fsprobe"
	"github.com/pkg/errors"
)

// ErrNotEquivalent is returned by Compare when the files of two trials
// differ.
var ErrNotEquivalent = errors.New("bench: trial outputs are not equivalent")

// Digest returns the size and the xxhash64 checksum of name.
func Digest(o fsprobe.Opener, name string) (size int64, sum uint64, err error) {
	f, err := o.Open(name)
	if err != nil {
		return 0, 0, errors.Wrap(err, "open")
	}
	defer f.Close()

	h := xxhash.New64()
	size, err = io.Copy(h, f)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "digest %s", name)
	}
	return size, h.Sum64(), nil
}

// Compare checks that the files written by trials are equivalent: each file
// must hold exactly Iterations copies of Payload, in order, and all of the
// files must have the same size and checksum.
//
// Trials whose iteration count or payload differ from the first trial's
// cannot be compared, and are reported as an error.
func Compare(fsys fsprobe.FS, trials []Trial) error {
	if len(trials) == 0 {
		return nil
	}
	ref := trials[0]
	var refSum uint64
	for i, t := range trials {
		if t.Iterations != ref.Iterations || !bytes.Equal(t.Payload, ref.Payload) {
			return errors.Errorf("trial %q writes different data than %q", t.Name, ref.Name)
		}

		size, sum, err := Digest(fsys, t.File)
		if err != nil {
			return errors.Wrapf(err, "trial %q", t.Name)
		}
		if size != t.Size() {
			return errors.Wrapf(ErrNotEquivalent, "%s: size %d, expected %d", t.File, size, t.Size())
		}
		if i == 0 {
			refSum = sum
			if err := checkRecords(fsys, t); err != nil {
				return err
			}
			continue
		}
		if sum != refSum {
			return errors.Wrapf(ErrNotEquivalent, "%s: checksum %016x, %s has %016x", t.File, sum, ref.File, refSum)
		}
	}
	return nil
}

// checkRecords walks the records of the trial's file, making sure every one
// of them is the payload.
func checkRecords(fsys fsprobe.FS, t Trial) error {
	r, err := fsprobe.NewRecordReader(fsys, t.File, len(t.Payload))
	if err != nil {
		return errors.Wrapf(err, "trial %q", t.Name)
	}
	defer r.Close()

	n := 0
	for r.Next() {
		if !bytes.Equal(r.Record(), t.Payload) {
			return errors.Wrapf(ErrNotEquivalent, "%s: record %d is %q", t.File, r.Index(), r.Record())
		}
		n++
	}
	if err := r.Error(); err != nil {
		return errors.Wrapf(err, "trial %q", t.Name)
	}
	if n != t.Iterations {
		return errors.Wrapf(ErrNotEquivalent, "%s: %d records, expected %d", t.File, n, t.Iterations)
	}
	return nil
}
