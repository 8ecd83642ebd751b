package engine

import (
	"errors"

	cerrdefs "github.com/containerd/errdefs"
)

// Kind is the closed set of buckets the container driver classifies every
// engine error into. Callers above this package never inspect the
// underlying Docker error directly.
type Kind int

const (
	// KindAPIError means the engine was reachable but refused the call.
	KindAPIError Kind = iota
	// KindNotFound means the referenced container or path does not exist.
	KindNotFound
	// KindUnavailable means the engine itself could not be reached.
	KindUnavailable
)

// Error wraps an underlying engine error with its classified Kind.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// classify maps a raw error returned by the Docker client into one of the
// three buckets the driver contract promises.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case cerrdefs.IsNotFound(err):
		return &Error{Kind: KindNotFound, Op: op, Err: err}
	case cerrdefs.IsUnavailable(err), cerrdefs.IsCanceled(err), cerrdefs.IsDeadlineExceeded(err):
		return &Error{Kind: KindUnavailable, Op: op, Err: err}
	default:
		return &Error{Kind: KindAPIError, Op: op, Err: err}
	}
}

// IsNotFound reports whether err (or any wrapped error) classifies as NotFound.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindNotFound
}

// IsUnavailable reports whether err (or any wrapped error) classifies as Unavailable.
func IsUnavailable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindUnavailable
}
