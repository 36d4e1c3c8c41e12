package restkit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/restkit/pkg/restkit"
)

type warnRecorder struct {
	restkit.NopLogger

	warnings int
}

func (w *warnRecorder) Warn(string, map[string]interface{}) { w.warnings++ }

func TestRetry_ExhaustsAttempts(t *testing.T) {
	t.Parallel()

	for _, retries := range []int{0, 1, 3, 5} {
		calls := 0
		failure := restkit.NewServerError("503 Service Unavailable: /users", 503, "")

		fn := restkit.Retry(func(ctx context.Context) (any, error) {
			calls++

			return nil, failure
		}, restkit.WithMaxRetries(retries), restkit.WithBackoff(0, 0))

		_, err := fn(context.Background())
		require.Error(t, err)
		assert.Same(t, failure, err)
		assert.Equal(t, retries+1, calls)
	}
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	t.Parallel()

	logger := &warnRecorder{}
	calls := 0

	fn := restkit.Retry(func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", restkit.NewClientError("429 Too Many Requests: /users", 429, "")
		}

		return "ok", nil
	}, restkit.WithBackoff(time.Millisecond, time.Millisecond), restkit.WithRetryLogger(logger))

	got, err := fn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, logger.warnings)
}

func TestRetry_DoesNotRetryParseErrors(t *testing.T) {
	t.Parallel()

	calls := 0

	fn := restkit.Retry(func(ctx context.Context) (any, error) {
		calls++

		return restkit.JSONResponseHandler{}.Parse(&restkit.Response{Body: []byte("foo")})
	}, restkit.WithBackoff(0, 0))

	_, err := fn(context.Background())
	require.Error(t, err)
	assert.True(t, restkit.IsParseError(err))
	assert.Equal(t, 1, calls)
}

func TestRetry_CustomPredicate(t *testing.T) {
	t.Parallel()

	calls := 0
	errFlaky := errors.New("flaky")

	fn := restkit.Retry(func(ctx context.Context) (any, error) {
		calls++

		return nil, errFlaky
	},
		restkit.WithMaxRetries(2),
		restkit.WithBackoff(0, 0),
		restkit.WithRetryIf(func(err error) bool { return errors.Is(err, errFlaky) }),
	)

	_, err := fn(context.Background())
	require.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 3, calls)

	onlyServer := restkit.Retry(func(ctx context.Context) (any, error) {
		calls++

		return nil, restkit.NewClientError("400 Bad Request", 400, "")
	}, restkit.WithBackoff(0, 0), restkit.WithRetryIf(restkit.IsServerError))

	calls = 0
	_, err = onlyServer(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_StopsOnContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	fn := restkit.Retry(func(ctx context.Context) (any, error) {
		calls++
		cancel()

		return nil, restkit.NewServerError("500 Internal Server Error", 500, "")
	}, restkit.WithMaxRetries(5), restkit.WithBackoff(time.Hour, time.Hour))

	_, err := fn(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetry_FreshCountPerInvocation(t *testing.T) {
	t.Parallel()

	calls := 0

	fn := restkit.Retry(func(ctx context.Context) (any, error) {
		calls++

		return nil, restkit.NewServerError("500", 500, "")
	}, restkit.WithMaxRetries(1), restkit.WithBackoff(0, 0))

	_, _ = fn(context.Background())
	_, _ = fn(context.Background())
	assert.Equal(t, 4, calls)
}

func TestRetry_WithClient(t *testing.T) {
	t.Parallel()

	attempts := 0
	transport := restkit.TransportFunc(func(ctx context.Context, req *restkit.TransportRequest) (*restkit.Response, error) {
		attempts++
		if attempts == 1 {
			return &restkit.Response{URL: req.URL, StatusCode: 500}, nil
		}

		return &restkit.Response{URL: req.URL, StatusCode: 200, Body: []byte(`{"id":1}`)}, nil
	})

	client, err := restkit.New(context.Background(),
		restkit.WithBaseURL("https://api.example.com"),
		restkit.WithTransport(transport),
		restkit.WithResponseHandler(restkit.JSONResponseHandler{}),
	)
	require.NoError(t, err)

	getUser := restkit.Retry(func(ctx context.Context) (any, error) {
		return client.Get(ctx, "users/1", nil)
	}, restkit.WithBackoff(0, 0))

	data, err := getUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": float64(1)}, data)
	assert.Equal(t, 2, attempts)
}
