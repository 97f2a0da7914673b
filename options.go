package fsprobe

import "github.com/pkg/errors"

// Option is a functional configuration type that can be used to configure
// the behaviour of a *Verifier.
type Option func(*Verifier) error

// Iterations sets the number of write+sync+verify cycles a run performs.
//
// Rare durability violations only show up over many iterations; the
// default is DefaultIterations.
func Iterations(n int) Option {
	return func(v *Verifier) error {
		if n < 1 {
			return errors.Errorf("invalid iteration count %d", n)
		}
		v.iterations = n
		return nil
	}
}

// Payload sets the bytes appended by every iteration. A copy of p is kept.
func Payload(p []byte) Option {
	return func(v *Verifier) error {
		if len(p) == 0 {
			return errors.New("empty payload")
		}
		v.payload = append([]byte(nil), p...)
		return nil
	}
}

// WithTopology sets how the write and sync handles are opened.
func WithTopology(t Topology) Option {
	return func(v *Verifier) error {
		if _, ok := topologyNames[t]; !ok {
			return errors.Errorf("unknown topology %d", int(t))
		}
		v.topology = t
		return nil
	}
}

// OnIteration registers fn to be called, from the goroutine calling Run,
// after every iteration whose assertions all passed.
func OnIteration(fn func(State)) Option {
	return func(v *Verifier) error {
		v.onIter = fn
		return nil
	}
}
