package roulette

import (
	"errors"
	"fmt"
)

// Code is the stable, machine-readable reason attached to every rejected or
// failed settlement.
type Code string

const (
	CodeInvalidWagerType      Code = "InvalidWagerType"
	CodeInvalidStraightNumber Code = "InvalidStraightNumber"
	CodeInvalidRangeSelector  Code = "InvalidRangeSelector"
	CodeInvalidStake          Code = "InvalidStake"
	CodeInsufficientFunds     Code = "InsufficientFunds"
	CodeAccountNotFound       Code = "AccountNotFound"
	CodeGeneratorUnavailable  Code = "GeneratorUnavailable"
	CodeStorageError          Code = "StorageError"
	CodeInternalError         Code = "InternalError"
)

// Kind groups codes by how the caller is expected to react.
type Kind uint8

const (
	KindValidation Kind = iota
	KindFunds
	KindTransient
	KindInvariant
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindFunds:
		return "funds"
	case KindTransient:
		return "transient"
	case KindInvariant:
		return "invariant"
	}
	return "unknown"
}

// Kind classifies the code.
func (c Code) Kind() Kind {
	switch c {
	case CodeInvalidWagerType, CodeInvalidStraightNumber, CodeInvalidRangeSelector, CodeInvalidStake:
		return KindValidation
	case CodeInsufficientFunds, CodeAccountNotFound:
		return KindFunds
	case CodeGeneratorUnavailable, CodeStorageError:
		return KindTransient
	}
	return KindInvariant
}

// Error is a settlement failure carrying its code. Cause, when set, is the
// underlying storage or generator error.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Retryable reports whether the same request may succeed if sent again.
func (e *Error) Retryable() bool {
	return e.Code.Kind() == KindTransient
}

// Is matches another *Error by code, so errors.Is(err, ErrInsufficientFunds)
// works on any error carrying that code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func NewError(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func Errorf(code Code, format string, a ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, a...)}
}

// Wrap attaches a code and message to a lower level error.
func Wrap(code Code, cause error, msg string) *Error {
	return &Error{Code: code, Message: msg, Cause: cause}
}

// AsError extracts the *Error from an error chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidWagerType      = NewError(CodeInvalidWagerType, "unknown wager type")
	ErrInvalidStraightNumber = NewError(CodeInvalidStraightNumber, "straight number must be between 0 and 36")
	ErrInvalidRangeSelector  = NewError(CodeInvalidRangeSelector, "invalid range selector")
	ErrInvalidStake          = NewError(CodeInvalidStake, "stake must be a positive integer")
	ErrInsufficientFunds     = NewError(CodeInsufficientFunds, "insufficient balance")
	ErrGeneratorUnavailable  = NewError(CodeGeneratorUnavailable, "outcome generator unavailable")
)
