package bench

import "github.com/pkg/errors"

// Option is a functional configuration type that can be used to configure
// the behaviour of a *Runner.
type Option func(*Runner) error

// BufferSize sets the size of the buffer used by the buffered strategies.
func BufferSize(n int) Option {
	return func(r *Runner) error {
		if n <= 0 {
			return errors.Errorf("invalid buffer size %d", n)
		}
		r.bufSize = n
		return nil
	}
}

// OnResult registers fn to be called as soon as each trial completes,
// before the next trial starts.
func OnResult(fn func(TrialResult)) Option {
	return func(r *Runner) error {
		r.onResult = fn
		return nil
	}
}
