// Package bench times write strategies against each other: unbuffered
// writes, buffered writes flushed after every iteration or only once,
// a single bulk write, and, optionally, writes each followed by a data sync.
//
// Every Trial writes the same fixed-size payload a fixed number of times to
// a file of its own, which it creates (or truncates) and leaves behind for
// inspection. Since the strategies only differ in how the bytes reach the
// file, all of the files of a run must end up identical; Compare checks
// that they do.
package bench
