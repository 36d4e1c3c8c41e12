//go:build integration

package integration

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"strings"
	"sync"
	"testing"

	"github.com/fivetwenty-io/restkit/examples/users/usersapi"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	RestkitPath string
	Verbose     bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		RestkitPath: getRestkitPath(),
		Verbose:     os.Getenv("RESTKIT_VERBOSE") == "true",
	}
}

// getRestkitPath determines the path to the restkit binary
func getRestkitPath() string {
	if path := os.Getenv("RESTKIT_BINARY_PATH"); path != "" {
		return path
	}

	// Try common locations
	candidates := []string{
		"../../restkit",
		"./restkit",
		"../restkit",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "restkit" // Fallback to PATH
}

// SkipIfMissingBinary skips test if the restkit binary cannot be found
func (config *TestConfig) SkipIfMissingBinary(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath(config.RestkitPath); err != nil {
		t.Skipf("restkit binary not found at %s, skipping integration test", config.RestkitPath)
	}
}

// CommandRunner provides utilities for running restkit commands
type CommandRunner struct {
	config  *TestConfig
	t       *testing.T
	baseEnv []string
}

// NewCommandRunner creates a new command runner whose commands share an
// isolated home directory.
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	t.Helper()

	return &CommandRunner{
		config:  config,
		t:       t,
		baseEnv: append(os.Environ(), "HOME="+t.TempDir()),
	}
}

// Run executes a restkit command and returns output
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	cmd := exec.Command(runner.config.RestkitPath, args...)
	cmd.Env = runner.baseEnv

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.RestkitPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// UsersServer is an in-process users API that records request headers.
type UsersServer struct {
	*httptest.Server
	Backend *usersapi.Server

	mutex   sync.Mutex
	headers []http.Header
}

// StartUsersServer starts a users API seeded with one user and three accounts.
// When token is set every request must carry it as a bearer token.
func StartUsersServer(t *testing.T, token string) *UsersServer {
	t.Helper()

	backend := usersapi.NewServer(
		[]usersapi.User{{ID: 1, FirstName: "Ada", LastName: "Lovelace"}},
		[]usersapi.Account{
			{ID: 10, UserID: 1, Name: "checking"},
			{ID: 11, UserID: 1, Name: "savings"},
			{ID: 12, UserID: 1, Name: "brokerage"},
		},
	)

	server := &UsersServer{Backend: backend}
	handler := backend.Handler()

	server.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		server.mutex.Lock()
		server.headers = append(server.headers, r.Header.Clone())
		server.mutex.Unlock()

		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)

	return server
}

// Headers returns the headers of every request received so far.
func (s *UsersServer) Headers() []http.Header {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return append([]http.Header(nil), s.headers...)
}

// StartTokenServer starts an OAuth2 token endpoint issuing token for the
// given client credentials.
func StartTokenServer(t *testing.T, clientID, clientSecret, token string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, secret, ok := r.BasicAuth()
		if r.Method != http.MethodPost || !ok || id != clientID || secret != clientSecret {
			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"` + token + `","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(server.Close)

	return server
}
