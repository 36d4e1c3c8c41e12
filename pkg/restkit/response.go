package restkit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// Response is the raw result handed back by a Transport.
type Response struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Headers    http.Header
	Body       []byte
}

// RawData returns the body as a string.
func (r *Response) RawData() string {
	return string(r.Body)
}

// IsSuccessful reports a 2xx status.
func (r *Response) IsSuccessful() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Reason returns the status line without a repeated code, e.g. "404 Not Found".
func (r *Response) Reason() string {
	code := strconv.Itoa(r.StatusCode)
	if r.Status != "" {
		if strings.HasPrefix(r.Status, code) {
			return r.Status
		}

		return code + " " + r.Status
	}

	if text := http.StatusText(r.StatusCode); text != "" {
		return code + " " + text
	}

	return code
}
