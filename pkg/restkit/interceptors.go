package restkit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// ErrCircuitBreakerOpen is returned while a circuit breaker rejects calls.
var ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

// InterceptedRequest is a transport request seen by interceptors. Metadata
// carries values from request interceptors to response interceptors.
type InterceptedRequest struct {
	*TransportRequest

	Metadata map[string]interface{}
}

// InterceptedResponse is the outcome of a send. Response is nil when Error
// is set.
type InterceptedResponse struct {
	StatusCode int
	Response   *Response
	Error      error
}

// RequestInterceptor is called before a request is sent.
type RequestInterceptor func(ctx context.Context, req *InterceptedRequest) error

// ResponseInterceptor is called after a response is received.
type ResponseInterceptor func(ctx context.Context, req *InterceptedRequest, resp *InterceptedResponse) error

// InterceptorChain manages a chain of interceptors.
type InterceptorChain struct {
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
}

// NewInterceptorChain creates a new interceptor chain.
func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{
		requestInterceptors:  make([]RequestInterceptor, 0),
		responseInterceptors: make([]ResponseInterceptor, 0),
	}
}

// AddRequestInterceptor adds a request interceptor to the chain.
func (c *InterceptorChain) AddRequestInterceptor(interceptor RequestInterceptor) *InterceptorChain {
	c.requestInterceptors = append(c.requestInterceptors, interceptor)

	return c
}

// AddResponseInterceptor adds a response interceptor to the chain.
func (c *InterceptorChain) AddResponseInterceptor(interceptor ResponseInterceptor) *InterceptorChain {
	c.responseInterceptors = append(c.responseInterceptors, interceptor)

	return c
}

// ExecuteRequestInterceptors runs all request interceptors in order.
func (c *InterceptorChain) ExecuteRequestInterceptors(ctx context.Context, req *InterceptedRequest) error {
	for _, interceptor := range c.requestInterceptors {
		err := interceptor(ctx, req)
		if err != nil {
			return fmt.Errorf("request interceptor failed: %w", err)
		}
	}

	return nil
}

// ExecuteResponseInterceptors runs all response interceptors in order.
func (c *InterceptorChain) ExecuteResponseInterceptors(ctx context.Context, req *InterceptedRequest, resp *InterceptedResponse) error {
	for _, interceptor := range c.responseInterceptors {
		err := interceptor(ctx, req, resp)
		if err != nil {
			return fmt.Errorf("response interceptor failed: %w", err)
		}
	}

	return nil
}

// InterceptingTransport runs an interceptor chain around another transport.
type InterceptingTransport struct {
	next  Transport
	chain *InterceptorChain
}

// NewInterceptingTransport wraps next with chain.
func NewInterceptingTransport(next Transport, chain *InterceptorChain) *InterceptingTransport {
	if chain == nil {
		chain = NewInterceptorChain()
	}

	return &InterceptingTransport{next: next, chain: chain}
}

// Send implements Transport. A request interceptor error aborts the send.
// A transport error is still shown to the response interceptors before it
// is returned.
func (t *InterceptingTransport) Send(ctx context.Context, req *TransportRequest) (*Response, error) {
	intercepted := &InterceptedRequest{
		TransportRequest: req,
		Metadata:         make(map[string]interface{}),
	}
	if intercepted.Headers == nil {
		intercepted.Headers = make(map[string]string)
	}

	err := t.chain.ExecuteRequestInterceptors(ctx, intercepted)
	if err != nil {
		return nil, err
	}

	resp, sendErr := t.next.Send(ctx, intercepted.TransportRequest)

	outcome := &InterceptedResponse{Response: resp, Error: sendErr}
	if resp != nil {
		outcome.StatusCode = resp.StatusCode
	}

	err = t.chain.ExecuteResponseInterceptors(ctx, intercepted, outcome)
	if sendErr != nil {
		return nil, sendErr
	}

	if err != nil {
		return nil, err
	}

	return resp, nil
}

// LoggingInterceptor logs requests.
func LoggingInterceptor(logger Logger) RequestInterceptor {
	return func(ctx context.Context, req *InterceptedRequest) error {
		logger.Debug("API Request", map[string]interface{}{
			"method": req.Method,
			"url":    req.URL,
		})

		return nil
	}
}

// LoggingResponseInterceptor logs responses.
func LoggingResponseInterceptor(logger Logger) ResponseInterceptor {
	return func(ctx context.Context, req *InterceptedRequest, resp *InterceptedResponse) error {
		fields := map[string]interface{}{
			"method":      req.Method,
			"url":         req.URL,
			"status_code": resp.StatusCode,
		}

		if resp.Error != nil {
			fields["error"] = resp.Error.Error()
			logger.Error("API Response Error", fields)
		} else {
			logger.Debug("API Response", fields)
		}

		return nil
	}
}

// HeaderInterceptor adds custom headers to requests.
func HeaderInterceptor(headers map[string]string) RequestInterceptor {
	return func(ctx context.Context, req *InterceptedRequest) error {
		for key, value := range headers {
			req.Headers[key] = value
		}

		return nil
	}
}

// RequestIDInterceptor sets a random request ID header unless the caller
// already set one. An empty header name means X-Request-Id.
func RequestIDInterceptor(header string) RequestInterceptor {
	if header == "" {
		header = "X-Request-Id"
	}

	return func(ctx context.Context, req *InterceptedRequest) error {
		id, ok := req.Headers[header]
		if !ok || id == "" {
			id = uuid.NewString()
			req.Headers[header] = id
		}

		req.Metadata["request_id"] = id

		return nil
	}
}

// RateLimitInterceptor implements client-side rate limiting. It blocks until
// a token is available or ctx is done.
func RateLimitInterceptor(requestsPerSecond float64, burst int) RequestInterceptor {
	if burst < 1 {
		burst = 1
	}

	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), burst)

	return func(ctx context.Context, req *InterceptedRequest) error {
		err := limiter.Wait(ctx)
		if err != nil {
			return fmt.Errorf("waiting for rate limiter: %w", err)
		}

		return nil
	}
}

// Metrics are counters for one method and URL.
type Metrics struct {
	TotalRequests   int64
	TotalErrors     int64
	TotalLatency    time.Duration
	AverageLatency  time.Duration
	LastRequestTime time.Time
}

// MetricsCollector collects API metrics. It is safe for concurrent use.
type MetricsCollector struct {
	mutex    sync.Mutex
	metrics  map[string]*Metrics
	onChange func(endpoint string, metrics Metrics)
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics: make(map[string]*Metrics),
	}
}

// SetOnChange sets a callback for when metrics change.
func (m *MetricsCollector) SetOnChange(fn func(endpoint string, metrics Metrics)) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.onChange = fn
}

// GetMetrics returns a snapshot of the metrics for "METHOD url", or nil.
func (m *MetricsCollector) GetMetrics(endpoint string) *Metrics {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	metrics, ok := m.metrics[endpoint]
	if !ok {
		return nil
	}

	snapshot := *metrics

	return &snapshot
}

func (m *MetricsCollector) record(endpoint string, latency time.Duration, failed bool) {
	m.mutex.Lock()

	metrics, ok := m.metrics[endpoint]
	if !ok {
		metrics = &Metrics{}
		m.metrics[endpoint] = metrics
	}

	metrics.TotalRequests++
	metrics.LastRequestTime = time.Now()

	if latency > 0 {
		metrics.TotalLatency += latency
		metrics.AverageLatency = metrics.TotalLatency / time.Duration(metrics.TotalRequests)
	}

	if failed {
		metrics.TotalErrors++
	}

	snapshot := *metrics
	onChange := m.onChange

	m.mutex.Unlock()

	if onChange != nil {
		onChange(endpoint, snapshot)
	}
}

// MetricsRequestInterceptor records request start time.
func MetricsRequestInterceptor(collector *MetricsCollector) RequestInterceptor {
	return func(ctx context.Context, req *InterceptedRequest) error {
		req.Metadata["start_time"] = time.Now()

		return nil
	}
}

// MetricsResponseInterceptor records response metrics. Transport errors and
// statuses of 400 and above count as errors.
func MetricsResponseInterceptor(collector *MetricsCollector) ResponseInterceptor {
	return func(ctx context.Context, req *InterceptedRequest, resp *InterceptedResponse) error {
		var latency time.Duration
		if startTime, ok := req.Metadata["start_time"].(time.Time); ok {
			latency = time.Since(startTime)
		}

		collector.record(
			fmt.Sprintf("%s %s", req.Method, req.URL),
			latency,
			resp.Error != nil || resp.StatusCode >= 400,
		)

		return nil
	}
}

type breakerState string

const (
	breakerClosed   breakerState = "closed"
	breakerOpen     breakerState = "open"
	breakerHalfOpen breakerState = "half-open"
)

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	Threshold        int           // Number of failures before opening
	Timeout          time.Duration // Time before trying again
	SuccessThreshold int           // Number of successes to close
}

// CircuitBreaker rejects calls after repeated server failures.
type CircuitBreaker struct {
	mutex       sync.Mutex
	config      CircuitBreakerConfig
	failures    int
	successes   int
	state       breakerState
	lastFailure time.Time
}

// NewCircuitBreaker creates a new circuit breaker. A nil config opens after
// 5 failures, waits 30s and closes after 2 successes.
func NewCircuitBreaker(config *CircuitBreakerConfig) *CircuitBreaker {
	cfg := CircuitBreakerConfig{
		Threshold:        5,
		Timeout:          30 * time.Second,
		SuccessThreshold: 2,
	}
	if config != nil {
		cfg = *config
	}

	return &CircuitBreaker{
		config: cfg,
		state:  breakerClosed,
	}
}

// State returns "closed", "open" or "half-open".
func (b *CircuitBreaker) State() string {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return string(b.state)
}

// CircuitBreakerRequestInterceptor checks circuit state before requests.
func CircuitBreakerRequestInterceptor(breaker *CircuitBreaker) RequestInterceptor {
	return func(ctx context.Context, req *InterceptedRequest) error {
		breaker.mutex.Lock()
		defer breaker.mutex.Unlock()

		if breaker.state == breakerOpen {
			if time.Since(breaker.lastFailure) <= breaker.config.Timeout {
				return ErrCircuitBreakerOpen
			}

			breaker.state = breakerHalfOpen
			breaker.successes = 0
		}

		return nil
	}
}

// CircuitBreakerResponseInterceptor updates circuit state based on responses.
func CircuitBreakerResponseInterceptor(breaker *CircuitBreaker) ResponseInterceptor {
	return func(ctx context.Context, req *InterceptedRequest, resp *InterceptedResponse) error {
		breaker.mutex.Lock()
		defer breaker.mutex.Unlock()

		if resp.Error != nil || resp.StatusCode >= 500 {
			breaker.failures++
			breaker.lastFailure = time.Now()

			if breaker.failures >= breaker.config.Threshold || breaker.state == breakerHalfOpen {
				breaker.state = breakerOpen
			}

			return nil
		}

		switch breaker.state {
		case breakerHalfOpen:
			breaker.successes++
			if breaker.successes >= breaker.config.SuccessThreshold {
				breaker.state = breakerClosed
				breaker.failures = 0
			}
		case breakerClosed:
			breaker.failures = 0
		case breakerOpen:
		}

		return nil
	}
}
