// Package deposit holds the scheduled-booking deposit policy: the deposit
// split, proof validation, the collector state machine, the transition
// guards of the review workflow and the error taxonomy shared by the
// service and HTTP layers.  Nothing here performs I/O.
package deposit

import (
	"errors"
	"fmt"
)

// Kind tags an Error so callers can choose policy (fail fast on
// validation, retry with backoff on service errors).
type Kind string

const (
	KindValidation Kind = "validation"
	KindUpload     Kind = "upload"
	KindService    Kind = "service"
	KindConflict   Kind = "conflict"
	KindNotFound   Kind = "not_found"
	KindForbidden  Kind = "forbidden"
)

// Sentinels wrapped by Error values; test them with errors.Is.
var (
	ErrProofMissing  = errors.New("payment proof is required")
	ErrProofTooLarge = errors.New("payment proof exceeds size limit")
	ErrProofType     = errors.New("payment proof must be an image or PDF")
	ErrTermsRequired = errors.New("terms must be accepted")
	ErrInvalidState  = errors.New("booking is not in a state that allows this action")
	ErrStaleVersion  = errors.New("booking was modified concurrently")
	ErrNotConfirmed  = errors.New("action requires explicit confirmation")
)

// Error is the tagged error returned by deposit operations.
type Error struct {
	Kind      Kind
	Msg       string
	Err       error
	Retryable bool
}

func (e *Error) Error() string {
	if e.Err != nil && e.Msg != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string, err error) error {
	return &Error{Kind: KindValidation, Msg: msg, Err: err}
}

func Upload(msg string, err error) error {
	return &Error{Kind: KindUpload, Msg: msg, Err: err}
}

// Service wraps a failure of an external collaborator (database, storage,
// broker).  Service errors are retryable.
func Service(op string, err error) error {
	return &Error{Kind: KindService, Msg: op, Err: err, Retryable: true}
}

func Conflict(msg string, err error) error {
	return &Error{Kind: KindConflict, Msg: msg, Err: err}
}

func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Msg: msg}
}

// KindOf returns the Kind of err, or KindService for untagged errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindService
}

// IsRetryable reports whether retrying the failed operation may succeed.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}
