package switchcore

import (
	"fmt"

	"github.com/softnic/softnicd/sv"
	"gopkg.in/src-d/go-errors.v1"
)

// Errno names the POSIX errno kinds used throughout the control-plane API.
// The numeric values are this package's own (EINVAL=1 ... E2BIG=8), not the
// platform's errno numbers.
// It is carried both as a Go error (wrapped by SVError) and, at the
// dispatcher boundary, as an sv.Err value.
type Errno uint32

const (
	EINVAL Errno = iota + 1
	ENOENT
	EEXIST
	EBUSY
	ENODEV
	ENOTSUP
	EIO
	E2BIG
)

func (e Errno) String() string {
	switch e {
	case EINVAL:
		return "EINVAL"
	case ENOENT:
		return "ENOENT"
	case EEXIST:
		return "EEXIST"
	case EBUSY:
		return "EBUSY"
	case ENODEV:
		return "ENODEV"
	case ENOTSUP:
		return "ENOTSUP"
	case EIO:
		return "EIO"
	case E2BIG:
		return "E2BIG"
	default:
		return fmt.Sprintf("errno(%d)", uint32(e))
	}
}

// SVError is the Go-level error type carrying an Errno plus a human message.
// It converts 1:1 to an sv.Err value at the dispatcher boundary.
type SVError struct {
	Code Errno
	Msg  string
}

func (e *SVError) Error() string {
	if e.Msg == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// NewError builds an *SVError with a formatted message.
func NewError(code Errno, format string, args ...interface{}) *SVError {
	return &SVError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// ToSV converts any error into an sv.Err value. Errors that are not an
// *SVError are reported as EIO, since they represent a failure mode the
// control-plane API did not anticipate.
func ToSV(err error) sv.Value {
	if err == nil {
		return sv.Nil()
	}
	if se, ok := err.(*SVError); ok {
		return sv.Err(uint32(se.Code), "%s", se.Error())
	}
	return sv.Err(uint32(EIO), "%s", err.Error())
}

// Internal sentinel kinds for failures that never cross the SV boundary
// (process-fatal conditions).
var (
	ErrInvariantViolation = errors.NewKind("invariant violation: %s")
	ErrFatalInit          = errors.NewKind("fatal initialization failure: %s")
)
