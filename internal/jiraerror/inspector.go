package jiraerror

import (
	"errors"
	"net/http"
	"strings"
)

// Inspector provides methods for analyzing Jira REST API errors.
type Inspector interface {
	// IsAuthError returns true if the error represents an authentication or authorization failure.
	IsAuthError(err error) bool

	// IsBadRequestError returns true if the error represents a request Jira rejected
	// as malformed, such as an invalid JQL expression.
	IsBadRequestError(err error) bool

	// IsNotFoundError returns true if the error represents a resource not found error.
	IsNotFoundError(err error) bool

	// IsNetworkError returns true if the error represents a network connectivity error.
	IsNetworkError(err error) bool

	// IsRetryable returns true if the error represents a transient condition
	// that is worth retrying, such as a 5xx response or a dropped connection.
	IsRetryable(err error) bool
}

// StatusCoder is implemented by errors that carry the HTTP status code of a
// failed API call. When a status code is present in the error chain,
// classification uses it instead of string matching.
type StatusCoder interface {
	StatusCode() int
}

// JiraErrorInspector implements the Inspector interface for Jira REST API errors.
type JiraErrorInspector struct{}

// NewInspector creates a new JiraErrorInspector.
func NewInspector() Inspector {
	return &JiraErrorInspector{}
}

// statusOf extracts an HTTP status code from the error chain, if any error in
// the chain implements StatusCoder.
func statusOf(err error) (int, bool) {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode(), true
	}
	return 0, false
}

// IsAuthError checks if the error is an authentication or authorization error.
func (i *JiraErrorInspector) IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := statusOf(err); ok {
		return code == http.StatusUnauthorized || code == http.StatusForbidden
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "forbidden") ||
		strings.Contains(errStr, "authentication")
}

// IsBadRequestError checks if the error is a bad request error. Jira answers
// an invalid JQL expression with a 400 and a list of error messages.
func (i *JiraErrorInspector) IsBadRequestError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := statusOf(err); ok {
		return code == http.StatusBadRequest
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "400") ||
		strings.Contains(errStr, "bad request") ||
		strings.Contains(errStr, "error in the jql")
}

// IsNotFoundError checks if the error is a not found error.
func (i *JiraErrorInspector) IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := statusOf(err); ok {
		return code == http.StatusNotFound
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "404") ||
		strings.Contains(errStr, "not found") ||
		strings.Contains(errStr, "does not exist")
}

// IsNetworkError checks if the error is a network connectivity error.
func (i *JiraErrorInspector) IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "dial tcp") ||
		strings.Contains(errStr, "tls handshake") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "eof")
}

// IsRetryable checks if the error represents a transient condition. Jira
// Data Center instances routinely answer 500 or 503 while a node restarts,
// and 429 when request throttling kicks in.
func (i *JiraErrorInspector) IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := statusOf(err); ok {
		return IsRetryableStatusCode(code)
	}
	return i.IsNetworkError(err)
}

// IsRetryableStatusCode reports whether an HTTP status code should trigger a
// transparent retry.
func IsRetryableStatusCode(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
