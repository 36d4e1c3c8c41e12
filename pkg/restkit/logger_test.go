package restkit_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/restkit/pkg/restkit"
)

func TestZerologLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := restkit.NewZerologLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	logger.Debug("hidden", nil)
	logger.Info("visible", map[string]interface{}{"endpoint": "users"})
	logger.Warn("careful", nil)
	logger.Error("failed", map[string]interface{}{"status_code": 500})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "info", first["level"])
	assert.Equal(t, "visible", first["message"])
	assert.Equal(t, "users", first["endpoint"])
}

func TestDebugTransportLogging(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	var buf bytes.Buffer

	client := newClient(t,
		restkit.WithBaseURL(server.URL),
		restkit.WithLogger(restkit.NewZerologLogger(zerolog.New(&buf))),
		restkit.WithDebug(true),
	)

	_, err := client.Get(context.Background(), "ping", nil)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, `"message":"GET"`)
	assert.Contains(t, output, "HTTP Request")
	assert.Contains(t, output, "HTTP Response")
}
