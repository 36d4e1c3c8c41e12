package restkit

import (
	"encoding/json"
	"fmt"
	"time"
)

// Option configures an APIClient in New.
type Option func(*APIClient) error

// WithBaseURL sets the URL relative endpoints resolve against. A missing
// scheme defaults to https.
func WithBaseURL(baseURL string) Option {
	return func(c *APIClient) error {
		u, err := parseBaseURL(baseURL)
		if err != nil {
			return err
		}

		c.baseURL = u

		return nil
	}
}

// WithAuthenticationMethod sets the authentication method.
func WithAuthenticationMethod(authenticationMethod AuthenticationMethod) Option {
	return func(c *APIClient) error {
		return c.SetAuthenticationMethod(authenticationMethod)
	}
}

// WithResponseHandler sets the response handler.
func WithResponseHandler(responseHandler ResponseHandler) Option {
	return func(c *APIClient) error {
		return c.SetResponseHandler(responseHandler)
	}
}

// WithRequestFormatter sets the request formatter.
func WithRequestFormatter(requestFormatter RequestFormatter) Option {
	return func(c *APIClient) error {
		return c.SetRequestFormatter(requestFormatter)
	}
}

// WithErrorHandler sets the error handler.
func WithErrorHandler(errorHandler ErrorHandler) Option {
	return func(c *APIClient) error {
		return c.SetErrorHandler(errorHandler)
	}
}

// WithRequestStrategy sets the request strategy.
func WithRequestStrategy(requestStrategy RequestStrategy) Option {
	return func(c *APIClient) error {
		return c.SetRequestStrategy(requestStrategy)
	}
}

// WithTransport sets the transport session.
func WithTransport(transport Transport) Option {
	return func(c *APIClient) error {
		return c.SetTransport(transport)
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *APIClient) error {
		c.timeout = timeout

		return nil
	}
}

// WithLogger sets the client logger.
func WithLogger(logger Logger) Option {
	return func(c *APIClient) error {
		if isNil(logger) {
			return invalid("logger")
		}

		c.logger = logger

		return nil
	}
}

// WithDebug makes the default transport log every request and response.
func WithDebug(debug bool) Option {
	return func(c *APIClient) error {
		c.debug = debug

		return nil
	}
}

// As converts a parsed JSON payload into T. It is meant to wrap a verb call
// directly:
//
//	user, err := restkit.As[User](client.Get(ctx, "users/1", nil))
func As[T any](payload any, err error) (T, error) {
	var out T
	if err != nil {
		return out, err
	}

	if payload == nil {
		return out, nil
	}

	if typed, ok := payload.(T); ok {
		return typed, nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return out, fmt.Errorf("re-encoding payload: %w", err)
	}

	err = json.Unmarshal(raw, &out)
	if err != nil {
		return out, fmt.Errorf("decoding payload into %T: %w", out, err)
	}

	return out, nil
}
