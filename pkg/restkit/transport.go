package restkit

import (
	"context"
	"net/http"
	"time"

	restkithttp "github.com/fivetwenty-io/restkit/internal/http"
)

// Params are query parameters. Later sources overwrite earlier ones key by key.
type Params map[string]string

// Clone returns a copy of p; a nil receiver yields an empty map.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for key, value := range p {
		out[key] = value
	}

	return out
}

// Merge returns a new Params holding p overlaid with other.
func (p Params) Merge(other Params) Params {
	out := p.Clone()
	for key, value := range other {
		out[key] = value
	}

	return out
}

// Credentials is a username/password pair for HTTP basic authentication.
type Credentials struct {
	Username string
	Password string
}

// TransportRequest is what the pipeline hands to the transport.
type TransportRequest struct {
	Method    string
	URL       string
	Headers   map[string]string
	Params    Params
	Body      []byte
	BasicAuth *Credentials
	Timeout   time.Duration
}

// Transport sends one request and returns the raw response. Connection
// failures are reported as errors; any status code is a valid response.
type Transport interface {
	Send(ctx context.Context, req *TransportRequest) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *TransportRequest) (*Response, error)

// Send calls f.
func (f TransportFunc) Send(ctx context.Context, req *TransportRequest) (*Response, error) {
	return f(ctx, req)
}

// HTTPTransportOption configures the default HTTP transport.
type HTTPTransportOption func(*httpTransportConfig)

type httpTransportConfig struct {
	opts []restkithttp.Option
}

// WithTransportLogger logs each request and response at debug level.
func WithTransportLogger(logger Logger) HTTPTransportOption {
	return func(c *httpTransportConfig) {
		c.opts = append(c.opts, restkithttp.WithLogger(logger), restkithttp.WithDebug(true))
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) HTTPTransportOption {
	return func(c *httpTransportConfig) {
		c.opts = append(c.opts, restkithttp.WithUserAgent(userAgent))
	}
}

// WithConnectionRetries lets the transport retry connection failures, 429
// and 5xx responses before handing the final response to the pipeline.
func WithConnectionRetries(maxRetries int, waitMin, waitMax time.Duration) HTTPTransportOption {
	return func(c *httpTransportConfig) {
		c.opts = append(c.opts, restkithttp.WithRetryConfig(maxRetries, waitMin, waitMax))
	}
}

// WithHTTPClient sends requests through httpClient.
func WithHTTPClient(httpClient *http.Client) HTTPTransportOption {
	return func(c *httpTransportConfig) {
		c.opts = append(c.opts, restkithttp.WithHTTPClient(httpClient))
	}
}

// HTTPTransport is the default Transport. One instance is the session shared
// by every call made through a client and its clones.
type HTTPTransport struct {
	client *restkithttp.Client
}

// NewHTTPTransport creates the default transport.
func NewHTTPTransport(opts ...HTTPTransportOption) *HTTPTransport {
	cfg := &httpTransportConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return &HTTPTransport{client: restkithttp.NewClient(cfg.opts...)}
}

// HTTPClient exposes the underlying *http.Client.
func (t *HTTPTransport) HTTPClient() *http.Client {
	return t.client.HTTPClient()
}

// Send implements Transport.
func (t *HTTPTransport) Send(ctx context.Context, req *TransportRequest) (*Response, error) {
	httpReq := &restkithttp.Request{
		Method:  req.Method,
		URL:     req.URL,
		Headers: req.Headers,
		Query:   req.Params,
		Body:    req.Body,
		Timeout: req.Timeout,
	}

	if req.BasicAuth != nil {
		httpReq.BasicAuth = &restkithttp.BasicAuth{
			Username: req.BasicAuth.Username,
			Password: req.BasicAuth.Password,
		}
	}

	resp, err := t.client.Do(ctx, httpReq)
	if err != nil {
		return nil, err
	}

	return &Response{
		Method:     req.Method,
		URL:        resp.URL,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Headers:    resp.Headers,
		Body:       resp.Body,
	}, nil
}
