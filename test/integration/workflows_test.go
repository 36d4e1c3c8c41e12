//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/restkit/examples/users/usersapi"
	"github.com/fivetwenty-io/restkit/pkg/restkit"
)

// TestUsersWorkflow_CompleteJourney drives the typed client through a full
// user lifecycle
func TestUsersWorkflow_CompleteJourney(t *testing.T) {
	server := StartUsersServer(t, "")
	ctx := context.Background()

	client, err := usersapi.New(ctx, server.URL, nil,
		usersapi.WithRetryOptions(restkit.WithBackoff(0, 0)))
	require.NoError(t, err)

	// 1. Create a user
	created, err := client.CreateUser(ctx, "Grace", "Hopper")
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	// 2. Read it back after a transient failure
	server.Backend.FailUser(created.ID, 1)

	fetched, err := client.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, fetched)

	// 3. Update and overwrite
	_, err = client.UpdateUser(ctx, created.ID, "", "Brewster")
	require.NoError(t, err)

	overwritten, err := client.OverwriteUser(ctx, created.ID, "Margaret", "Hamilton")
	require.NoError(t, err)
	assert.Equal(t, "Hamilton", overwritten.LastName)

	// 4. Page through accounts of the seeded user
	accounts, err := client.ListUserAccounts(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, accounts, 3)

	// 5. Delete and verify
	require.NoError(t, client.DeleteUser(ctx, created.ID))

	_, err = client.GetUser(ctx, created.ID)
	require.Error(t, err)
	assert.True(t, restkit.IsClientError(err))
}

// TestInterceptorWorkflow runs requests through request ID, metrics and
// circuit breaker interceptors
func TestInterceptorWorkflow(t *testing.T) {
	server := StartUsersServer(t, "")
	ctx := context.Background()

	collector := restkit.NewMetricsCollector()
	breaker := restkit.NewCircuitBreaker(&restkit.CircuitBreakerConfig{
		Threshold: 2,
		Timeout:   time.Minute,
	})

	chain := restkit.NewInterceptorChain().
		AddRequestInterceptor(restkit.RequestIDInterceptor("")).
		AddRequestInterceptor(restkit.MetricsRequestInterceptor(collector)).
		AddRequestInterceptor(restkit.CircuitBreakerRequestInterceptor(breaker)).
		AddResponseInterceptor(restkit.MetricsResponseInterceptor(collector)).
		AddResponseInterceptor(restkit.CircuitBreakerResponseInterceptor(breaker))

	client, err := usersapi.New(ctx, server.URL, []restkit.Option{
		restkit.WithTransport(restkit.NewInterceptingTransport(restkit.NewHTTPTransport(), chain)),
	}, usersapi.WithRetryOptions(restkit.WithMaxRetries(0)))
	require.NoError(t, err)

	_, err = client.ListUsers(ctx)
	require.NoError(t, err)

	metrics := collector.GetMetrics("GET " + server.URL + "/users")
	require.NotNil(t, metrics)
	assert.Equal(t, int64(1), metrics.TotalRequests)
	assert.Zero(t, metrics.TotalErrors)

	headers := server.Headers()
	require.Len(t, headers, 1)
	assert.NotEmpty(t, headers[0].Get("X-Request-Id"))

	// Two server failures open the breaker; the third call never leaves
	server.Backend.FailUser(1, 5)

	for range 2 {
		_, err = client.GetUser(ctx, 1)
		require.True(t, restkit.IsServerError(err))
	}

	assert.Equal(t, "open", breaker.State())

	_, err = client.GetUser(ctx, 1)
	require.ErrorIs(t, err, restkit.ErrCircuitBreakerOpen)
	assert.Len(t, server.Headers(), 3)
}

// TestOAuth2Workflow authenticates with client credentials before the first
// request
func TestOAuth2Workflow(t *testing.T) {
	tokenServer := StartTokenServer(t, "restkit", "s3cret", "issued-token")
	server := StartUsersServer(t, "issued-token")
	ctx := context.Background()

	auth := &restkit.OAuth2ClientCredentials{
		TokenURL:     tokenServer.URL,
		ClientID:     "restkit",
		ClientSecret: "s3cret",
	}

	client, err := usersapi.New(ctx, server.URL, []restkit.Option{restkit.WithAuthenticationMethod(auth)})
	require.NoError(t, err)

	user, err := client.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.FirstName)

	_, err = usersapi.New(ctx, server.URL, []restkit.Option{
		restkit.WithAuthenticationMethod(&restkit.OAuth2ClientCredentials{
			TokenURL:     tokenServer.URL,
			ClientID:     "restkit",
			ClientSecret: "wrong",
		}),
	})
	require.Error(t, err)
}

// TestCLIWorkflow runs the restkit binary against the users API
func TestCLIWorkflow(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingBinary(t)

	server := StartUsersServer(t, "")
	runner := NewCommandRunner(config, t)

	// 1. Save the base URL
	_, stderr, err := runner.Run("config", "set", "base_url", server.URL)
	require.NoError(t, err, stderr)

	// 2. Create a user
	stdout, stderr, err := runner.Run("post", "users", "-d", `{"firstName":"Grace","lastName":"Hopper"}`)
	require.NoError(t, err, stderr)

	var created usersapi.User
	require.NoError(t, json.Unmarshal([]byte(stdout), &created))
	assert.Equal(t, "Grace", created.FirstName)

	// 3. Collect all account pages
	stdout, stderr, err = runner.Run("paginate", "accounts", "-p", "userId=1",
		"--next-field", "nextPage", "--all")
	require.NoError(t, err, stderr)

	var pages []usersapi.AccountsPage
	require.NoError(t, json.Unmarshal([]byte(stdout), &pages))
	assert.Len(t, pages, 2)

	// 4. Missing users fail with a client error
	_, stderr, err = runner.Run("get", "users/999")
	require.Error(t, err)
	assert.Contains(t, stderr, "client error")
}
