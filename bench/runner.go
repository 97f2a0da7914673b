package bench

import (
	"bufio"
	"bytes"
	"runtime"
	"time"

	"github.com/golang/glog"
	"github.com/nesv/fsprobe"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// TrialResult is the outcome of a completed trial.
type TrialResult struct {
	Trial    string        `json:"trial"`
	File     string        `json:"file"`
	Strategy Strategy      `json:"strategy"`
	Blocking bool          `json:"blocking"`
	Bytes    int64         `json:"bytes"`
	Elapsed  time.Duration `json:"elapsed_ns"`
}

// Runner runs trials one after the other.
type Runner struct {
	fs       fsprobe.FS
	trials   []Trial
	bufSize  int
	onResult func(TrialResult)
}

// NewRunner returns a *Runner for the given trials, whose files will be
// created within fsys.
func NewRunner(fsys fsprobe.FS, trials []Trial, options ...Option) (*Runner, error) {
	if fsys == nil {
		return nil, errors.New("nil fs")
	}
	if len(trials) == 0 {
		return nil, errors.New("no trials")
	}
	files := make(map[string]string, len(trials))
	for _, t := range trials {
		if err := t.validate(); err != nil {
			return nil, err
		}
		if other, ok := files[t.File]; ok {
			return nil, errors.Errorf("trials %q and %q share file %s", other, t.Name, t.File)
		}
		files[t.File] = t.Name
	}

	r := &Runner{
		fs:      fsys,
		trials:  trials,
		bufSize: DefaultBufferSize,
	}
	for _, option := range options {
		if err := option(r); err != nil {
			return nil, errors.Wrap(err, "applying option")
		}
	}
	return r, nil
}

// Trials returns the trials of the *Runner.
func (r *Runner) Trials() []Trial {
	return r.trials
}

// Run runs every trial, in order. The first error aborts the run; the
// results of the trials that completed before it are returned along with it.
func (r *Runner) Run() ([]TrialResult, error) {
	results := make([]TrialResult, 0, len(r.trials))
	for _, t := range r.trials {
		glog.Infof("running %q: %s x%d -> %s", t.Name, t.Strategy, t.Iterations, t.File)
		res, err := r.runTrial(t)
		if err != nil {
			return results, errors.Wrapf(err, "trial %q", t.Name)
		}
		results = append(results, res)
		if r.onResult != nil {
			r.onResult(res)
		}
	}
	return results, nil
}

func (r *Runner) runTrial(t Trial) (TrialResult, error) {
	if !t.Blocking {
		return r.timeTrial(t)
	}

	// Hand the trial to a goroutine of its own, pinned to an OS thread,
	// and wait for it.
	var (
		res TrialResult
		g   errgroup.Group
	)
	g.Go(func() error {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		var err error
		res, err = r.timeTrial(t)
		return err
	})
	if err := g.Wait(); err != nil {
		return TrialResult{}, err
	}
	return res, nil
}

// timeTrial creates the trial's file, and times the write loop. Creating and
// closing the file are not part of the elapsed time.
func (r *Runner) timeTrial(t Trial) (TrialResult, error) {
	f, err := r.fs.Create(t.File)
	if err != nil {
		return TrialResult{}, errors.Wrap(err, "create")
	}

	var block []byte
	if t.Strategy == Bulk {
		block = bytes.Repeat(t.Payload, t.Iterations)
	}

	start := time.Now()
	err = r.write(f, t, block)
	elapsed := time.Since(start)
	if err != nil {
		f.Close()
		return TrialResult{}, err
	}
	if err := f.Close(); err != nil {
		return TrialResult{}, errors.Wrap(err, "close")
	}

	return TrialResult{
		Trial:    t.Name,
		File:     t.File,
		Strategy: t.Strategy,
		Blocking: t.Blocking,
		Bytes:    t.Size(),
		Elapsed:  elapsed,
	}, nil
}

func (r *Runner) write(f fsprobe.File, t Trial, block []byte) error {
	switch t.Strategy {
	case Unbuffered:
		for i := 0; i < t.Iterations; i++ {
			if err := writeFull(f, t.Payload); err != nil {
				return err
			}
		}

	case BufferedFlushEach:
		w := bufio.NewWriterSize(f, r.bufSize)
		for i := 0; i < t.Iterations; i++ {
			if err := writeFull(w, t.Payload); err != nil {
				return err
			}
			if err := w.Flush(); err != nil {
				return errors.Wrap(err, "flush")
			}
		}

	case BufferedFlushOnce:
		w := bufio.NewWriterSize(f, r.bufSize)
		for i := 0; i < t.Iterations; i++ {
			if err := writeFull(w, t.Payload); err != nil {
				return err
			}
		}
		if err := w.Flush(); err != nil {
			return errors.Wrap(err, "flush")
		}

	case Bulk:
		return writeFull(f, block)

	case DatasyncEach:
		for i := 0; i < t.Iterations; i++ {
			if err := writeFull(f, t.Payload); err != nil {
				return err
			}
			if err := f.Datasync(); err != nil {
				return err
			}
		}

	default:
		return errors.Errorf("unknown strategy %d", int(t.Strategy))
	}
	return nil
}

type writer interface {
	Write(p []byte) (int, error)
}

func writeFull(w writer, p []byte) error {
	n, err := w.Write(p)
	if err != nil {
		return errors.Wrap(err, "write")
	}
	if n != len(p) {
		return errors.Errorf("write: short write: %d of %d bytes", n, len(p))
	}
	return nil
}
