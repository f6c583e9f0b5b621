// Package randerr defines the structured error kinds RandQuik surfaces to
// the CLI: InvalidArgument, IoOpen, IoWrite, Interrupted, and Internal.
package randerr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for exit-code and messaging purposes.
type Kind int

const (
	// InvalidArgument covers bad sizes, bad seeds, and conflicting flags.
	// Raised synchronously before any worker starts.
	InvalidArgument Kind = iota

	// IoOpen covers a refused output path or a TTY binary-write refusal.
	// Raised before workers start.
	IoOpen

	// IoWrite covers ENOSPC and other write failures during the run (a
	// broken pipe is reported as Interrupted instead). Flips the
	// pipeline's quit flag and unwinds through the consumer.
	IoWrite

	// Interrupted covers user-initiated cancellation (SIGINT) or a broken
	// pipe encountered as a graceful abort.
	Interrupted

	// Internal covers a worker panic or other programming error. Treated
	// as Interrupted from the caller's point of view.
	Internal
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid argument"
	case IoOpen:
		return "io open"
	case IoWrite:
		return "io write"
	case Interrupted:
		return "interrupted"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is a structured, wrap-compatible error carrying a Kind and,
// where relevant, the output path involved.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg = fmt.Sprintf("%s %s", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an *Error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithPath attaches a path to the error, typically the output path
// involved in an IoOpen/IoWrite failure.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// KindOf returns the Kind of err if it is (or wraps) a *Error, and ok=false
// otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsInterrupted reports whether err represents a graceful, already-partial
// abort (Interrupted or Internal, which is treated as Interrupted from the
// outside per spec).
func IsInterrupted(err error) bool {
	k, ok := KindOf(err)
	return ok && (k == Interrupted || k == Internal)
}
