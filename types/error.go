package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across graphground.
type ErrorCode string

// Grounding error codes
const (
	// ErrNotFound 查询键在图中不存在，调用方应视为"无 grounding"。
	ErrNotFound ErrorCode = "NOT_FOUND"
	// ErrGraphUnavailable 图数据库连接或查询失败，必须向上传播。
	ErrGraphUnavailable ErrorCode = "GRAPH_UNAVAILABLE"
	// ErrUnsupportedConfiguration 未知的 iteration 标签或缺失协作者，构造期致命。
	ErrUnsupportedConfiguration ErrorCode = "UNSUPPORTED_CONFIGURATION"
	// ErrEmptyResult 查询成功但没有可用路径。
	ErrEmptyResult ErrorCode = "EMPTY_RESULT"
)

// Upstream error codes
const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"
	ErrAuthentication     ErrorCode = "AUTHENTICATION"
	ErrRateLimit          ErrorCode = "RATE_LIMIT"
	ErrUpstreamTimeout    ErrorCode = "UPSTREAM_TIMEOUT"
	ErrUpstreamError      ErrorCode = "UPSTREAM_ERROR"
	ErrServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrInternalError      ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithProvider sets the provider name.
func (e *Error) WithProvider(provider string) *Error {
	e.Provider = provider
	return e
}

// NewNotFoundError creates a NOT_FOUND error.
func NewNotFoundError(format string, args ...any) *Error {
	return NewError(ErrNotFound, fmt.Sprintf(format, args...))
}

// NewGraphUnavailableError wraps a graph transport failure.
func NewGraphUnavailableError(message string, cause error) *Error {
	return NewError(ErrGraphUnavailable, message).WithCause(cause)
}

// NewUnsupportedConfigurationError creates an UNSUPPORTED_CONFIGURATION error.
func NewUnsupportedConfigurationError(format string, args ...any) *Error {
	return NewError(ErrUnsupportedConfiguration, fmt.Sprintf(format, args...))
}

// AsError finds the first *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsErrorCode reports whether err's chain carries the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	e, ok := AsError(err)
	return ok && e.Code == code
}

// IsNotFound reports whether err is NOT_FOUND.
func IsNotFound(err error) bool { return IsErrorCode(err, ErrNotFound) }

// IsGraphUnavailable reports whether err is GRAPH_UNAVAILABLE.
func IsGraphUnavailable(err error) bool { return IsErrorCode(err, ErrGraphUnavailable) }

// IsUnsupportedConfiguration reports whether err is UNSUPPORTED_CONFIGURATION.
func IsUnsupportedConfiguration(err error) bool {
	return IsErrorCode(err, ErrUnsupportedConfiguration)
}

// IsEmptyResult reports whether err is EMPTY_RESULT.
func IsEmptyResult(err error) bool { return IsErrorCode(err, ErrEmptyResult) }

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}
