package fsprobe

import "fmt"

// State is the position of a verification run: how many iterations have
// completed, and the file length those iterations must have produced.
//
// The zero value is the state before the first iteration of a run.
type State struct {
	Path      string
	Iteration int   // Number of completed iterations.
	Expected  int64 // Expected length of the file, in bytes.
}

// NewState returns the initial State for a run against path.
func NewState(path string) State {
	return State{Path: path}
}

// Next returns the state that must hold once the next iteration has
// appended size bytes.
func (s State) Next(size int) State {
	return State{
		Path:      s.Path,
		Iteration: s.Iteration + 1,
		Expected:  s.Expected + int64(size),
	}
}

// TailOffset returns the offset at which the most-recently appended record
// of the given size starts.
//
// For the initial state, TailOffset returns 0.
func (s State) TailOffset(size int) int64 {
	if off := s.Expected - int64(size); off > 0 {
		return off
	}
	return 0
}

// String implements the fmt.Stringer interface.
func (s State) String() string {
	return fmt.Sprintf("%s@%d (%d bytes)", s.Path, s.Iteration, s.Expected)
}
