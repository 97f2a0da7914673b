package bench

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	// DefaultIterations is the number of writes performed by each of the
	// DefaultTrials.
	DefaultIterations = 1000000

	// DefaultBufferSize is the size of the in-memory buffer used by the
	// buffered strategies.
	DefaultBufferSize = 8 * 1024
)

// DefaultPayload is the record written by each iteration of the
// DefaultTrials.
var DefaultPayload = []byte("hello world\n")

// Strategy is the way a trial moves its payloads into a file.
type Strategy int

const (
	// Unbuffered issues one write to the file per iteration.
	Unbuffered Strategy = iota

	// BufferedFlushEach writes into an in-memory buffer, and flushes the
	// buffer to the file after every iteration.
	BufferedFlushEach

	// BufferedFlushOnce writes into an in-memory buffer, and flushes it
	// to the file once, after the last iteration.
	BufferedFlushOnce

	// Bulk concatenates every payload into one block before the timer
	// starts, and moves it to the file with a single write.
	Bulk

	// DatasyncEach issues one write per iteration, each followed by an
	// fdatasync(2) of the file.
	DatasyncEach
)

var strategyNames = map[Strategy]string{
	Unbuffered:        "unbuffered",
	BufferedFlushEach: "buffered-flush-each",
	BufferedFlushOnce: "buffered-flush-once",
	Bulk:              "bulk",
	DatasyncEach:      "datasync-each",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// MarshalText implements the encoding.TextMarshaler interface.
func (s Strategy) MarshalText() ([]byte, error) {
	if _, ok := strategyNames[s]; !ok {
		return nil, errors.Errorf("unknown strategy %d", int(s))
	}
	return []byte(s.String()), nil
}

// Trial describes one timed run of a Strategy against its own file.
//
// When Blocking is set, the trial runs on a goroutine locked to its own OS
// thread, so the blocking writes never hold up the goroutine (or thread)
// driving the benchmark.
type Trial struct {
	Name       string
	File       string
	Strategy   Strategy
	Blocking   bool
	Iterations int
	Payload    []byte
}

func (t Trial) validate() error {
	switch {
	case t.Name == "":
		return errors.New("trial has no name")
	case t.File == "":
		return errors.Errorf("trial %q: no file", t.Name)
	case t.Iterations < 1:
		return errors.Errorf("trial %q: invalid iteration count %d", t.Name, t.Iterations)
	case len(t.Payload) == 0:
		return errors.Errorf("trial %q: empty payload", t.Name)
	}
	if _, ok := strategyNames[t.Strategy]; !ok {
		return errors.Errorf("trial %q: unknown strategy %d", t.Name, int(t.Strategy))
	}
	return nil
}

// Size returns the number of bytes the trial writes.
func (t Trial) Size() int64 {
	return int64(t.Iterations) * int64(len(t.Payload))
}

// DefaultTrials returns the standard set of trials: every buffering strategy
// on the calling goroutine, the same strategies again on a locked OS thread,
// and a single bulk write.
func DefaultTrials(iterations int, payload []byte) []Trial {
	trials := []Trial{
		{Name: "Case 1: unbuffered", File: "case1_flush_each.log", Strategy: Unbuffered},
		{Name: "Case 1a: buffered, flush each", File: "case1a_flush_each_buffered.log", Strategy: BufferedFlushEach},
		{Name: "Case 1b: buffered, flush once", File: "case1b_flush_once_buffered.log", Strategy: BufferedFlushOnce},
		{Name: "Case 2: unbuffered, blocking", File: "case2_sync_io.log", Strategy: Unbuffered, Blocking: true},
		{Name: "Case 2a: buffered, flush each, blocking", File: "case2a_flush_each_buffered.log", Strategy: BufferedFlushEach, Blocking: true},
		{Name: "Case 2b: buffered, flush once, blocking", File: "case2b_flush_once_buffered.log", Strategy: BufferedFlushOnce, Blocking: true},
		{Name: "Case 3: single bulk write", File: "case3_bulk.log", Strategy: Bulk},
	}
	for i := range trials {
		trials[i].Iterations = iterations
		trials[i].Payload = payload
	}
	return trials
}

// DatasyncTrial returns a trial that forces every write to stable storage.
// It is orders of magnitude slower than the DefaultTrials, and is therefore
// not part of them.
func DatasyncTrial(iterations int, payload []byte) Trial {
	return Trial{
		Name:       "Case 4: datasync each",
		File:       "case4_datasync_each.log",
		Strategy:   DatasyncEach,
		Iterations: iterations,
		Payload:    payload,
	}
}
