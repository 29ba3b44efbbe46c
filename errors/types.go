package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Host errors
	ErrCodeHostCommand     ErrorCode = "HOST_COMMAND"
	ErrCodeHostUnreachable ErrorCode = "HOST_UNREACHABLE"
	ErrCodeInvalidPayload  ErrorCode = "INVALID_PAYLOAD"

	// Console state errors
	ErrCodeNoInstance ErrorCode = "NO_INSTANCE"

	// Configuration errors
	ErrCodeConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG_INVALID"

	// General errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// ConsoleError represents a structured error with context
type ConsoleError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *ConsoleError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *ConsoleError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *ConsoleError) WithDetail(key string, value interface{}) *ConsoleError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *ConsoleError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new ConsoleError
func New(code ErrorCode, message string) *ConsoleError {
	return &ConsoleError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a ConsoleError
func Wrap(err error, code ErrorCode, message string) *ConsoleError {
	return &ConsoleError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// As returns the first ConsoleError in err's chain.
func As(err error) (*ConsoleError, bool) {
	for err != nil {
		if ce, ok := err.(*ConsoleError); ok {
			return ce, true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = unwrapper.Unwrap()
	}
	return nil, false
}

// Is checks if an error is a specific ConsoleError code
func Is(err error, code ErrorCode) bool {
	ce, ok := As(err)
	return ok && ce.Code == code
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if ce, ok := As(err); ok {
		return ce.Code
	}
	return ""
}
