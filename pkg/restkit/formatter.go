package restkit

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
)

// RequestFormatter sets the body encoding of outgoing requests.
type RequestFormatter interface {
	// Headers returns the headers describing the body encoding.
	Headers() map[string]string
	// Format serializes data into the request body. A nil result sends no body.
	Format(data any) ([]byte, error)
}

// NoOpRequestFormatter sends bodies the caller has already encoded.
// url.Values are form encoded.
type NoOpRequestFormatter struct{}

func (NoOpRequestFormatter) Headers() map[string]string { return map[string]string{} }

// Format implements RequestFormatter.
func (NoOpRequestFormatter) Format(data any) ([]byte, error) {
	switch body := data.(type) {
	case nil:
		return nil, nil
	case []byte:
		return body, nil
	case string:
		return []byte(body), nil
	case url.Values:
		return []byte(body.Encode()), nil
	case io.Reader:
		b, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("reading request body: %w", err)
		}

		return b, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedBody, data)
	}
}

// JSONRequestFormatter encodes bodies as JSON.
type JSONRequestFormatter struct{}

// Headers implements RequestFormatter.
func (JSONRequestFormatter) Headers() map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}

// Format implements RequestFormatter.
func (JSONRequestFormatter) Format(data any) ([]byte, error) {
	if data == nil {
		return nil, nil
	}

	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding request body to json: %w", err)
	}

	return body, nil
}
