package restkit

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/restkit/internal/constants"
)

// ErrorHandler turns an unsuccessful response into an error. Returning nil
// lets the pipeline parse the response as if it had succeeded.
type ErrorHandler interface {
	GetException(resp *Response) error
}

// DefaultErrorHandler classifies responses by status band.
type DefaultErrorHandler struct{}

// GetException implements ErrorHandler.
func (DefaultErrorHandler) GetException(resp *Response) error {
	return ClassifyStatus(resp.StatusCode, resp.Reason()+": "+resp.URL, infoExcerpt(resp.Body))
}

// ClassifyStatus maps a status code to its band: 3xx redirection, 4xx client,
// 5xx server, anything else unexpected. Success codes are not special cased
// here; the pipeline never classifies a 2xx response.
func ClassifyStatus(statusCode int, message, info string) *APIRequestError {
	switch {
	case statusCode >= 300 && statusCode < 400:
		return NewRedirectionError(message, statusCode, info)
	case statusCode >= 400 && statusCode < 500:
		return NewClientError(message, statusCode, info)
	case statusCode >= 500 && statusCode < 600:
		return NewServerError(message, statusCode, info)
	default:
		return NewUnexpectedError(message, statusCode, info)
	}
}

func infoExcerpt(body []byte) string {
	if len(body) > constants.MaxErrorInfoBytes {
		return string(body[:constants.MaxErrorInfoBytes])
	}

	return string(body)
}

// CodeErrorHandler reads an application error code from a JSON body and
// maps it to a registered error. Anything it cannot map falls back to
// Fallback, or to DefaultErrorHandler when Fallback is nil.
type CodeErrorHandler struct {
	// Fields are the body fields searched in order. Defaults to
	// "errorCode" then "error_code".
	Fields []string
	// Codes maps application codes to the error wrapped by the result.
	Codes map[int]error
	// Fallback handles unmapped responses.
	Fallback ErrorHandler
}

// NewCodeErrorHandler creates a handler for the given code mapping.
func NewCodeErrorHandler(codes map[int]error) *CodeErrorHandler {
	return &CodeErrorHandler{Codes: codes}
}

// GetException implements ErrorHandler.
func (h *CodeErrorHandler) GetException(resp *Response) error {
	if len(resp.Body) == 0 {
		return h.fallback(resp)
	}

	var body map[string]any

	err := json.Unmarshal(resp.Body, &body)
	if err != nil {
		return h.fallback(resp)
	}

	code, ok := h.lookupCode(body)
	if !ok {
		return h.fallback(resp)
	}

	mapped, ok := h.Codes[code]
	if !ok || mapped == nil {
		return h.fallback(resp)
	}

	reqErr := ClassifyStatus(resp.StatusCode, mapped.Error(), infoExcerpt(resp.Body))
	reqErr.Err = mapped

	return reqErr
}

func (h *CodeErrorHandler) lookupCode(body map[string]any) (int, bool) {
	fields := h.Fields
	if len(fields) == 0 {
		fields = []string{"errorCode", "error_code"}
	}

	for _, field := range fields {
		switch value := body[field].(type) {
		case float64:
			return int(value), true
		case string:
			code, err := strconv.Atoi(strings.TrimSpace(value))
			if err == nil {
				return code, true
			}
		}
	}

	return 0, false
}

func (h *CodeErrorHandler) fallback(resp *Response) error {
	if h.Fallback != nil {
		return h.Fallback.GetException(resp)
	}

	return DefaultErrorHandler{}.GetException(resp)
}
