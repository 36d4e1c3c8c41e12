package restkit

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// RequestStrategy executes calls for a client, one method per verb. The
// client is passed on every call so one strategy can serve a client and
// all of its clones.
type RequestStrategy interface {
	Get(ctx context.Context, client *APIClient, endpoint string, params Params, opts ...RequestOption) (any, error)
	Post(ctx context.Context, client *APIClient, endpoint string, data any, params Params, opts ...RequestOption) (any, error)
	Put(ctx context.Context, client *APIClient, endpoint string, data any, params Params, opts ...RequestOption) (any, error)
	Patch(ctx context.Context, client *APIClient, endpoint string, data any, params Params, opts ...RequestOption) (any, error)
	Delete(ctx context.Context, client *APIClient, endpoint string, params Params, opts ...RequestOption) (any, error)
}

// RequestOption adjusts a single call.
type RequestOption func(*requestOptions)

type requestOptions struct {
	headers map[string]string
	timeout time.Duration
}

// WithHeaders adds headers to one call. They override the client defaults.
func WithHeaders(headers map[string]string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string, len(headers))
		}

		for key, value := range headers {
			o.headers[key] = value
		}
	}
}

// WithRequestTimeout overrides the client timeout for one call.
func WithRequestTimeout(timeout time.Duration) RequestOption {
	return func(o *requestOptions) {
		o.timeout = timeout
	}
}

// DefaultRequestStrategy runs the standard pipeline: merge headers and
// params, format the body, send, classify, parse.
type DefaultRequestStrategy struct{}

// Get implements RequestStrategy.
func (s DefaultRequestStrategy) Get(ctx context.Context, client *APIClient, endpoint string, params Params, opts ...RequestOption) (any, error) {
	return s.Execute(ctx, client, http.MethodGet, endpoint, nil, params, opts...)
}

// Post implements RequestStrategy.
func (s DefaultRequestStrategy) Post(ctx context.Context, client *APIClient, endpoint string, data any, params Params, opts ...RequestOption) (any, error) {
	return s.Execute(ctx, client, http.MethodPost, endpoint, data, params, opts...)
}

// Put implements RequestStrategy.
func (s DefaultRequestStrategy) Put(ctx context.Context, client *APIClient, endpoint string, data any, params Params, opts ...RequestOption) (any, error) {
	return s.Execute(ctx, client, http.MethodPut, endpoint, data, params, opts...)
}

// Patch implements RequestStrategy.
func (s DefaultRequestStrategy) Patch(ctx context.Context, client *APIClient, endpoint string, data any, params Params, opts ...RequestOption) (any, error) {
	return s.Execute(ctx, client, http.MethodPatch, endpoint, data, params, opts...)
}

// Delete implements RequestStrategy.
func (s DefaultRequestStrategy) Delete(ctx context.Context, client *APIClient, endpoint string, params Params, opts ...RequestOption) (any, error) {
	return s.Execute(ctx, client, http.MethodDelete, endpoint, nil, params, opts...)
}

// Execute performs one call through client's strategies and transport.
// A non-2xx response is passed to the error handler and its error, when
// non-nil, is returned without parsing the body.
func (s DefaultRequestStrategy) Execute(
	ctx context.Context,
	client *APIClient,
	method, endpoint string,
	data any,
	params Params,
	opts ...RequestOption,
) (any, error) {
	options := &requestOptions{}
	for _, opt := range opts {
		opt(options)
	}

	target, err := resolveURL(client.baseURL, endpoint)
	if err != nil {
		return nil, err
	}

	headers := client.DefaultHeaders()
	for key, value := range options.headers {
		headers[key] = value
	}

	query := client.DefaultQueryParams().Merge(params)

	var body []byte
	if data != nil {
		body, err = client.RequestFormatter().Format(data)
		if err != nil {
			return nil, fmt.Errorf("formatting request body: %w", err)
		}
	}

	timeout := client.Timeout()
	if options.timeout > 0 {
		timeout = options.timeout
	}

	resp, err := client.Transport().Send(ctx, &TransportRequest{
		Method:    method,
		URL:       target,
		Headers:   headers,
		Params:    query,
		Body:      body,
		BasicAuth: client.DefaultUsernamePassword(),
		Timeout:   timeout,
	})
	if err != nil {
		return nil, &APIRequestError{
			Kind:    KindUnexpected,
			Message: fmt.Sprintf("Error when contacting '%s'", target),
			Err:     err,
		}
	}

	if !resp.IsSuccessful() {
		reqErr := client.ErrorHandler().GetException(resp)
		if reqErr != nil {
			return nil, reqErr
		}
	}

	return client.ResponseHandler().Parse(resp)
}
