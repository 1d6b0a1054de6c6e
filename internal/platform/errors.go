package platform

import (
	"errors"
	"fmt"
)

// Kind classifies platform failures.
type Kind int

const (
	KindUnknown Kind = iota
	KindForbidden
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is a classified failure of a platform operation.
// Callers can use errors.As to extract it:
//
//	var perr *platform.Error
//	if errors.As(err, &perr) && perr.Kind == platform.KindForbidden { ... }
type Error struct {
	Op   string // e.g. "create_category"
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("platform: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("platform: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Forbidden returns a KindForbidden error for op.
func Forbidden(op string, err error) error {
	return &Error{Op: op, Kind: KindForbidden, Err: err}
}

// NotFound returns a KindNotFound error for op.
func NotFound(op string, err error) error {
	return &Error{Op: op, Kind: KindNotFound, Err: err}
}

// KindOf returns the Kind of err, or KindUnknown when err is not a platform error.
func KindOf(err error) Kind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return KindUnknown
}

// IsForbidden reports whether the platform denied the operation for lack of privilege.
func IsForbidden(err error) bool {
	return KindOf(err) == KindForbidden
}

// IsNotFound reports whether the target of the operation no longer exists.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// OpOf returns the operation name of err, or "unknown".
func OpOf(err error) string {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Op
	}
	return "unknown"
}
