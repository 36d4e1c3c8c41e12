package restkit

import (
	"errors"
	"fmt"
)

// ErrAPIClient is the root of every error produced by this package.
var ErrAPIClient = errors.New("api client error")

// Sentinels matched with errors.Is against *APIRequestError by kind.
var (
	ErrAPIRequest  = errors.New("api request error")
	ErrRedirection = errors.New("redirection error")
	ErrClient      = errors.New("client error")
	ErrServer      = errors.New("server error")
	ErrUnexpected  = errors.New("unexpected error")
)

// Static errors for err113 compliance.
var (
	ErrInvalidConfiguration = errors.New("invalid client configuration")
	ErrUnsupportedBody      = errors.New("unsupported request body type")
	ErrInvalidBaseURL       = errors.New("base URL must be absolute")
	ErrRelativeEndpoint     = errors.New("relative endpoint requires a base URL")
	ErrEndpointHost         = errors.New("endpoint names a host but no scheme")
	ErrInvalidContinuation  = errors.New("continuation expression must return a map or nil")
	ErrNoMorePages          = errors.New("no more pages")
	ErrPageField            = errors.New("page field has an unusable value")
)

// ErrorKind is the status band an APIRequestError belongs to.
type ErrorKind int

const (
	// KindUnexpected covers anything outside the 3xx, 4xx and 5xx bands.
	KindUnexpected ErrorKind = iota
	// KindRedirection is a 3xx final status.
	KindRedirection
	// KindClient is a 4xx final status.
	KindClient
	// KindServer is a 5xx final status.
	KindServer
)

// String returns the name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindRedirection:
		return "redirection"
	case KindClient:
		return "client"
	case KindServer:
		return "server"
	default:
		return "unexpected"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindRedirection:
		return ErrRedirection
	case KindClient:
		return ErrClient
	case KindServer:
		return ErrServer
	default:
		return ErrUnexpected
	}
}

// ResponseParseError reports a response body that could not be parsed.
type ResponseParseError struct {
	Message string
	Data    string
	Err     error
}

// Error returns the message unchanged.
func (e *ResponseParseError) Error() string {
	return e.Message
}

// Unwrap returns the decoder error.
func (e *ResponseParseError) Unwrap() error {
	return e.Err
}

// Is reports the parse error as part of the client error family.
func (e *ResponseParseError) Is(target error) bool {
	return target == ErrAPIClient
}

// APIRequestError reports a request that did not succeed.
type APIRequestError struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Info       string

	// Err is an optional cause, such as a transport failure or an
	// application level error derived from the body.
	Err error
}

// Error returns the message unchanged.
func (e *APIRequestError) Error() string {
	return e.Message
}

// Unwrap returns the cause, if any.
func (e *APIRequestError) Unwrap() error {
	return e.Err
}

// Is matches the root sentinel, ErrAPIRequest and the sentinel of the kind.
func (e *APIRequestError) Is(target error) bool {
	switch target {
	case ErrAPIClient, ErrAPIRequest:
		return true
	}

	return target == e.Kind.sentinel()
}

// NewRedirectionError creates a 3xx request error.
func NewRedirectionError(message string, statusCode int, info string) *APIRequestError {
	return &APIRequestError{Kind: KindRedirection, Message: message, StatusCode: statusCode, Info: info}
}

// NewClientError creates a 4xx request error.
func NewClientError(message string, statusCode int, info string) *APIRequestError {
	return &APIRequestError{Kind: KindClient, Message: message, StatusCode: statusCode, Info: info}
}

// NewServerError creates a 5xx request error.
func NewServerError(message string, statusCode int, info string) *APIRequestError {
	return &APIRequestError{Kind: KindServer, Message: message, StatusCode: statusCode, Info: info}
}

// NewUnexpectedError creates a request error outside the known bands.
func NewUnexpectedError(message string, statusCode int, info string) *APIRequestError {
	return &APIRequestError{Kind: KindUnexpected, Message: message, StatusCode: statusCode, Info: info}
}

// newParseError builds the parse error with the message format callers match on.
func newParseError(format string, data string, err error) *ResponseParseError {
	return &ResponseParseError{
		Message: fmt.Sprintf("Unable to %s. data='%s'", format, data),
		Data:    data,
		Err:     err,
	}
}

// IsRedirection checks if the error is a 3xx request error.
func IsRedirection(err error) bool {
	return errors.Is(err, ErrRedirection)
}

// IsClientError checks if the error is a 4xx request error.
func IsClientError(err error) bool {
	return errors.Is(err, ErrClient)
}

// IsServerError checks if the error is a 5xx request error.
func IsServerError(err error) bool {
	return errors.Is(err, ErrServer)
}

// IsUnexpected checks if the error is a request error outside the known bands.
func IsUnexpected(err error) bool {
	return errors.Is(err, ErrUnexpected)
}

// IsParseError checks if the error is a response parse error.
func IsParseError(err error) bool {
	parseErr := &ResponseParseError{}

	return errors.As(err, &parseErr)
}

// StatusCode returns the status code carried by a request error, or 0.
func StatusCode(err error) int {
	reqErr := &APIRequestError{}
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}

	return 0
}
