package fsprobe

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrLengthMismatch  = errors.New("fsprobe: file length mismatch")
	ErrContentMismatch = errors.New("fsprobe: payload mismatch")
	ErrEmptyRead       = errors.New("fsprobe: empty read")
	ErrShortRead       = errors.New("fsprobe: short read")
)

// Kind classifies a *VerifyError.
type Kind int

const (
	KindIO Kind = iota
	KindLengthMismatch
	KindContentMismatch
	KindEmptyRead
	KindShortRead
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io error"
	case KindLengthMismatch:
		return "length mismatch"
	case KindContentMismatch:
		return "content mismatch"
	case KindEmptyRead:
		return "empty read"
	case KindShortRead:
		return "short read"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func kindOf(err error) Kind {
	switch errors.Cause(err) {
	case ErrLengthMismatch:
		return KindLengthMismatch
	case ErrContentMismatch:
		return KindContentMismatch
	case ErrEmptyRead:
		return KindEmptyRead
	case ErrShortRead:
		return KindShortRead
	}
	return KindIO
}

// VerifyError is returned by a *Verifier when an iteration fails. It
// identifies the failing iteration, and, for invariant violations, the
// expected and actual values.
//
// For KindIO errors, Expected and Actual are nil, and Err holds the
// underlying (wrapped) I/O error. For every other kind, Err is one of the
// package's Err* sentinels, so callers can use errors.Is.
type VerifyError struct {
	Kind      Kind
	Iteration int
	Path      string
	Op        string // The step that failed; e.g. "write", "datasync", "stat".
	Expected  interface{}
	Actual    interface{}
	Err       error
}

func (e *VerifyError) Error() string {
	if e.Kind == KindIO {
		return fmt.Sprintf("%s: iteration %d: %s: %v", e.Path, e.Iteration, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: iteration %d: %s (expected=%s actual=%s)",
		e.Path, e.Iteration, e.Kind, fmtValue(e.Expected), fmtValue(e.Actual))
}

func (e *VerifyError) Unwrap() error {
	return e.Err
}

func fmtValue(v interface{}) string {
	if b, ok := v.([]byte); ok {
		return fmt.Sprintf("%q", b)
	}
	return fmt.Sprint(v)
}

// IsInvariantViolation reports whether err is a *VerifyError caused by a
// failed assertion (rather than an I/O error).
func IsInvariantViolation(err error) bool {
	var verr *VerifyError
	if !errors.As(err, &verr) {
		return false
	}
	return verr.Kind != KindIO
}
