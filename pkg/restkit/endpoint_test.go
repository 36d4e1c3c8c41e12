package restkit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/restkit/pkg/restkit"
)

func TestEndpoint_Format(t *testing.T) {
	t.Parallel()

	users := restkit.Endpoint("users/{id}/accounts/{account}")

	assert.Equal(t, "users/1/accounts/a%2Fb", users.Format(map[string]any{"id": 1, "account": "a/b"}))
	assert.Equal(t, "users/{id}/accounts/{account}", users.Format(nil))
}

func TestEndpoints_URL(t *testing.T) {
	t.Parallel()

	endpoints := restkit.Endpoints{BaseURL: "https://api.example.com/v1/"}
	assert.Equal(t, "https://api.example.com/v1/users/7", endpoints.URL("/users/{id}", map[string]any{"id": 7}))

	assert.Equal(t, "users/7", restkit.Endpoints{}.URL("users/{id}", map[string]any{"id": 7}))
}

func TestEndpointResolution(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		baseURL  string
		endpoint string
		want     string
	}{
		{name: "relative", baseURL: "https://api.example.com/v1", endpoint: "users", want: "https://api.example.com/v1/users"},
		{name: "leading slash stays under base path", baseURL: "https://api.example.com/v1/", endpoint: "/users", want: "https://api.example.com/v1/users"},
		{name: "absolute passes through", baseURL: "https://api.example.com/v1", endpoint: "http://other.example.com/x", want: "http://other.example.com/x"},
		{name: "query in endpoint", baseURL: "https://api.example.com", endpoint: "users?active=true", want: "https://api.example.com/users?active=true"},
		{name: "no scheme", baseURL: "api.example.com", endpoint: "users", want: "https://api.example.com/users"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			transport := &recordingTransport{}
			client := newClient(t, restkit.WithBaseURL(tt.baseURL), restkit.WithTransport(transport))

			_, err := client.Get(context.Background(), tt.endpoint, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, transport.last().URL)
		})
	}
}

func TestEndpointResolution_RejectsSchemelessHost(t *testing.T) {
	t.Parallel()

	for _, endpoint := range []string{"//evil.example/x", "//user:pw@evil.example"} {
		transport := &recordingTransport{}
		client := newClient(t,
			restkit.WithBaseURL("https://api.example.com/v1"),
			restkit.WithAuthenticationMethod(restkit.NewHeaderAuthentication("secret")),
			restkit.WithTransport(transport),
		)

		_, err := client.Get(context.Background(), endpoint, nil)
		require.ErrorIs(t, err, restkit.ErrEndpointHost, endpoint)
		assert.Empty(t, transport.requests, endpoint)
	}
}
