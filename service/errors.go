package service

import (
	"errors"
	"fmt"
)

const (
	// ErrInternalServerError means that an internal server error has occurred.
	ErrInternalServerError = "internal_server_error"
	// ErrEntityNotFound means that a requested record is absent from the peer table.
	ErrEntityNotFound = "entity_not_found"
	// ErrBadParameter means that provided parameter does not match declared.
	ErrBadParameter = "bad_parameter"
	// ErrBind means that a transport could not be bound (address in use, multicast join failure).
	ErrBind = "bind_error"
	// ErrDecode means that a payload could not be decrypted or parsed.
	ErrDecode = "decode_error"
	// ErrResolution means that the broker hostname could not be resolved.
	ErrResolution = "resolution_error"
	// ErrConnection means that a single broker connection failed.
	ErrConnection = "connection_error"
)

// MyError represents an error within the context of discovery services.
type MyError struct {
	// Code is a machine-readable code.
	Code string `json:"code,omitempty"`
	// Message is a human-readable message.
	Message string `json:"message"`
	// Inner is a wrapped error that is never shown to API consumers.
	Inner error `json:"-"`
}

// NewMyError creates a new MyError.
func NewMyError(code string, message string, inner error) *MyError {
	return &MyError{
		Code:    code,
		Message: message,
		Inner:   inner,
	}
}

func newWithCode(code string, message string, inner error) *MyError {
	myInner := ToMyError(inner)
	if myInner != nil {
		return myInner
	}

	return NewMyError(code, message, inner)
}

func NewInternalServerError(message string, inner error) *MyError {
	return newWithCode(ErrInternalServerError, message, inner)
}

func NewEntityNotFoundError(message string, inner error) *MyError {
	return newWithCode(ErrEntityNotFound, message, inner)
}

func NewBadParameterError(message string, inner error) *MyError {
	return newWithCode(ErrBadParameter, message, inner)
}

func NewBindError(message string, inner error) *MyError {
	return newWithCode(ErrBind, message, inner)
}

func NewDecodeError(message string, inner error) *MyError {
	return newWithCode(ErrDecode, message, inner)
}

func NewResolutionError(message string, inner error) *MyError {
	return newWithCode(ErrResolution, message, inner)
}

func NewConnectionError(message string, inner error) *MyError {
	return newWithCode(ErrConnection, message, inner)
}

func (e MyError) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("%s %s: %v", e.Code, e.Message, e.Inner)
	}

	return fmt.Sprintf("%s %s", e.Code, e.Message)
}

// Unwrap the error returning the error's reason.
func (e MyError) Unwrap() error {
	return e.Inner
}

// ToMyError returns a pointer to a discovery error, or nil if it is not one.
func ToMyError(err error) *MyError {
	var e *MyError
	if errors.As(err, &e) {
		return e
	}

	return nil
}

// ToMyErrorCode returns the code of the error, if available.
func ToMyErrorCode(err error) string {
	myerror := ToMyError(err)
	if myerror != nil {
		return myerror.Code
	}
	return ""
}

func IsMyError(err error, code string) bool {
	myerror := ToMyError(err)
	if myerror != nil {
		return myerror.Code == code
	}
	return false
}

func IsInternalServerError(err error) bool {
	return IsMyError(err, ErrInternalServerError)
}

func IsEntityNotFoundError(err error) bool {
	return IsMyError(err, ErrEntityNotFound)
}

func IsBadParameterError(err error) bool {
	return IsMyError(err, ErrBadParameter)
}

func IsBindError(err error) bool {
	return IsMyError(err, ErrBind)
}

func IsDecodeError(err error) bool {
	return IsMyError(err, ErrDecode)
}

func IsResolutionError(err error) bool {
	return IsMyError(err, ErrResolution)
}

func IsConnectionError(err error) bool {
	return IsMyError(err, ErrConnection)
}
