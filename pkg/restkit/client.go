package restkit

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"time"

	"github.com/fivetwenty-io/restkit/internal/constants"
)

// APIClient composes one instance of each strategy with a shared transport.
// Every strategy field is non-nil after New returns; setters reject nil
// values and keep the previous strategy.
//
// An APIClient is not safe for concurrent reconfiguration. Concurrent calls
// are as safe as the configured transport and strategies.
type APIClient struct {
	baseURL *url.URL

	authenticationMethod AuthenticationMethod
	responseHandler      ResponseHandler
	requestFormatter     RequestFormatter
	errorHandler         ErrorHandler
	requestStrategy      RequestStrategy
	transport            Transport

	timeout time.Duration
	logger  Logger
	debug   bool
}

// New creates a client from the defaults plus opts, then performs the
// authentication method's one-time setup.
//
// Defaults: NoAuthentication, RawResponseHandler, NoOpRequestFormatter,
// DefaultErrorHandler, DefaultRequestStrategy, an HTTPTransport, a 10s
// timeout and a NopLogger.
func New(ctx context.Context, opts ...Option) (*APIClient, error) {
	client := &APIClient{
		authenticationMethod: NoAuthentication{},
		responseHandler:      RawResponseHandler{},
		requestFormatter:     NoOpRequestFormatter{},
		errorHandler:         DefaultErrorHandler{},
		requestStrategy:      DefaultRequestStrategy{},
		timeout:              constants.DefaultRequestTimeout,
		logger:               NopLogger{},
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		err := opt(client)
		if err != nil {
			return nil, err
		}
	}

	if client.transport == nil {
		var transportOpts []HTTPTransportOption
		if client.debug {
			transportOpts = append(transportOpts, WithTransportLogger(client.logger))
		}

		client.transport = NewHTTPTransport(transportOpts...)
	}

	err := client.authenticationMethod.PerformInitialAuth(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("performing initial authentication: %w", err)
	}

	return client, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

func invalid(role string) error {
	return fmt.Errorf("%w: %s must not be nil", ErrInvalidConfiguration, role)
}

// AuthenticationMethod returns the active authentication method.
func (c *APIClient) AuthenticationMethod() AuthenticationMethod {
	return c.authenticationMethod
}

// SetAuthenticationMethod replaces the authentication method. It does not
// rerun PerformInitialAuth.
func (c *APIClient) SetAuthenticationMethod(authenticationMethod AuthenticationMethod) error {
	if isNil(authenticationMethod) {
		return invalid("authentication method")
	}

	c.authenticationMethod = authenticationMethod

	return nil
}

// ResponseHandler returns the active response handler.
func (c *APIClient) ResponseHandler() ResponseHandler {
	return c.responseHandler
}

// SetResponseHandler replaces the response handler.
func (c *APIClient) SetResponseHandler(responseHandler ResponseHandler) error {
	if isNil(responseHandler) {
		return invalid("response handler")
	}

	c.responseHandler = responseHandler

	return nil
}

// RequestFormatter returns the active request formatter.
func (c *APIClient) RequestFormatter() RequestFormatter {
	return c.requestFormatter
}

// SetRequestFormatter replaces the request formatter.
func (c *APIClient) SetRequestFormatter(requestFormatter RequestFormatter) error {
	if isNil(requestFormatter) {
		return invalid("request formatter")
	}

	c.requestFormatter = requestFormatter

	return nil
}

// ErrorHandler returns the active error handler.
func (c *APIClient) ErrorHandler() ErrorHandler {
	return c.errorHandler
}

// SetErrorHandler replaces the error handler.
func (c *APIClient) SetErrorHandler(errorHandler ErrorHandler) error {
	if isNil(errorHandler) {
		return invalid("error handler")
	}

	c.errorHandler = errorHandler

	return nil
}

// RequestStrategy returns the active request strategy.
func (c *APIClient) RequestStrategy() RequestStrategy {
	return c.requestStrategy
}

// SetRequestStrategy replaces the request strategy.
func (c *APIClient) SetRequestStrategy(requestStrategy RequestStrategy) error {
	if isNil(requestStrategy) {
		return invalid("request strategy")
	}

	c.requestStrategy = requestStrategy

	return nil
}

// Transport returns the shared transport session.
func (c *APIClient) Transport() Transport {
	return c.transport
}

// SetTransport replaces the transport session.
func (c *APIClient) SetTransport(transport Transport) error {
	if isNil(transport) {
		return invalid("transport")
	}

	c.transport = transport

	return nil
}

// Logger returns the client logger.
func (c *APIClient) Logger() Logger {
	return c.logger
}

// Timeout returns the per-request timeout handed to the transport.
func (c *APIClient) Timeout() time.Duration {
	return c.timeout
}

// SetTimeout changes the per-request timeout. Zero or negative disables it.
func (c *APIClient) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// BaseURL returns the base URL relative endpoints resolve against, or "".
func (c *APIClient) BaseURL() string {
	if c.baseURL == nil {
		return ""
	}

	return c.baseURL.String()
}

// DefaultHeaders returns the authentication headers overlaid with the
// formatter headers. The formatter wins on conflict.
func (c *APIClient) DefaultHeaders() map[string]string {
	headers := make(map[string]string)
	for key, value := range c.authenticationMethod.Headers() {
		headers[key] = value
	}

	for key, value := range c.requestFormatter.Headers() {
		headers[key] = value
	}

	return headers
}

// DefaultQueryParams returns the authentication query parameters.
func (c *APIClient) DefaultQueryParams() Params {
	return c.authenticationMethod.QueryParams().Clone()
}

// DefaultUsernamePassword returns the basic auth credentials, or nil.
func (c *APIClient) DefaultUsernamePassword() *Credentials {
	return c.authenticationMethod.UsernamePassword()
}

// Clone returns a new client container. Nothing is deep-copied: the
// strategies, transport and logger are the same objects as in c. Setters
// called on the clone only affect the clone.
func (c *APIClient) Clone() *APIClient {
	clone := *c

	return &clone
}

// Get returns the payload of a GET request.
func (c *APIClient) Get(ctx context.Context, endpoint string, params Params, opts ...RequestOption) (any, error) {
	c.logger.Debug("GET", map[string]interface{}{"endpoint": endpoint})

	return c.requestStrategy.Get(ctx, c, endpoint, params, opts...)
}

// Post sends data and returns the payload of a POST request.
func (c *APIClient) Post(ctx context.Context, endpoint string, data any, params Params, opts ...RequestOption) (any, error) {
	c.logger.Debug("POST", map[string]interface{}{"endpoint": endpoint})

	return c.requestStrategy.Post(ctx, c, endpoint, data, params, opts...)
}

// Put sends data to overwrite a resource.
func (c *APIClient) Put(ctx context.Context, endpoint string, data any, params Params, opts ...RequestOption) (any, error) {
	c.logger.Debug("PUT", map[string]interface{}{"endpoint": endpoint})

	return c.requestStrategy.Put(ctx, c, endpoint, data, params, opts...)
}

// Patch sends data to update a resource.
func (c *APIClient) Patch(ctx context.Context, endpoint string, data any, params Params, opts ...RequestOption) (any, error) {
	c.logger.Debug("PATCH", map[string]interface{}{"endpoint": endpoint})

	return c.requestStrategy.Patch(ctx, c, endpoint, data, params, opts...)
}

// Delete removes a resource.
func (c *APIClient) Delete(ctx context.Context, endpoint string, params Params, opts ...RequestOption) (any, error) {
	c.logger.Debug("DELETE", map[string]interface{}{"endpoint": endpoint})

	return c.requestStrategy.Delete(ctx, c, endpoint, params, opts...)
}
