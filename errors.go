// Package eventhub implements a stackful-coroutine cooperative scheduler
// with an integrated event/receptor notification system, a red-black-tree
// timer engine, and an epoll-style aggregator, for bare-metal and hosted
// POSIX builds alike.
package eventhub

import "errors"

// Code is a domain error tag, not a numeric status code.
type Code int

const (
	// Ok is the zero value so a freshly zeroed Code never looks like an
	// error by accident.
	Ok Code = iota
	Fault
	InvalidParam
	InvalidState
	Busy
	MallocError
	Timeout
	EventError
	Exists
	NotExists
)

func (c Code) String() string {
	switch c {
	case Ok:
		return "ok"
	case Fault:
		return "fault"
	case InvalidParam:
		return "invalid param"
	case InvalidState:
		return "invalid state"
	case Busy:
		return "busy"
	case MallocError:
		return "malloc error"
	case Timeout:
		return "timeout"
	case EventError:
		return "event error"
	case Exists:
		return "exists"
	case NotExists:
		return "not exists"
	default:
		return "unknown"
	}
}

// Error wraps a Code with an optional cause, satisfying the standard
// errors.Is/errors.As chain: errors travel up the call chain as plain
// return values, never panics or process aborts.
type Error struct {
	Code  Code
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Code.String() + ": " + e.Cause.Error()
	}
	return e.Code.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same Code, so callers
// can write errors.Is(err, eventhub.NewError(eventhub.Timeout)) or, more
// conventionally, IsCode(err, Timeout).
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Code == e.Code
	}
	return false
}

// NewError constructs an *Error with the given code and no cause.
func NewError(code Code) *Error { return &Error{Code: code} }

// WrapError constructs an *Error with the given code, chaining cause.
func WrapError(code Code, cause error) *Error { return &Error{Code: code, Cause: cause} }

// IsCode reports whether err is (or wraps) an *Error with the given code.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// Sentinel errors for the most common codes, so callers who only care
// about one specific failure mode can compare with errors.Is directly.
var (
	ErrInvalidParam = NewError(InvalidParam)
	ErrInvalidState = NewError(InvalidState)
	ErrBusy         = NewError(Busy)
	ErrMallocError  = NewError(MallocError)
	ErrTimeout      = NewError(Timeout)
	ErrEventError   = NewError(EventError)
	ErrExists       = NewError(Exists)
	ErrNotExists    = NewError(NotExists)
)
