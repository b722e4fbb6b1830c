package errors

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeUnrecognizedExtension ErrorCode = "UNRECOGNIZED_EXTENSION"
	CodeMalformedDirective    ErrorCode = "MALFORMED_DIRECTIVE"
	CodeUnresolvedPath        ErrorCode = "UNRESOLVED_PATH"
	CodeConfiguration         ErrorCode = "CONFIGURATION_ERROR"
	CodeNotFound              ErrorCode = "NOT_FOUND"
	CodeInternal              ErrorCode = "INTERNAL_ERROR"
)

type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]interface{}
}

const (
	CtxPath      = "path"
	CtxLine      = "line"
	CtxText      = "text"
	CtxExtension = "extension"
	CtxOperation = "operation"
)

func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) > 0 {
		msg += fmt.Sprintf(" %v", e.Context)
	}
	return msg
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, msg string) *DomainError {
	return &DomainError{Code: code, Message: msg}
}

func Wrap(err error, code ErrorCode, msg string) *DomainError {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// AddContext attaches key/value context to the first DomainError in err's chain,
// wrapping err as an internal error when it carries none.
func AddContext(err error, key string, value interface{}) error {
	var de *DomainError
	if errors.As(err, &de) {
		de.WithContext(key, value)
		return err
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]interface{}{key: value},
	}
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the code of the first DomainError in err's chain.
func CodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
