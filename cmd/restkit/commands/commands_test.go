package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/restkit/internal/constants"
	"github.com/fivetwenty-io/restkit/pkg/restkit"
)

func resetViper(t *testing.T) {
	t.Helper()

	viper.Reset()
	viper.SetConfigFile(filepath.Join(t.TempDir(), "config.yml"))
	viper.Set("output", constants.FormatJSON)
	t.Cleanup(viper.Reset)
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func findCommand(cmds []*cobra.Command, name string) *cobra.Command {
	for _, c := range cmds {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

func TestNewRequestCommands(t *testing.T) {
	cmds := NewRequestCommands()
	require.Len(t, cmds, 5)

	for _, name := range []string{"get", "post", "put", "patch", "delete"} {
		cmd := findCommand(cmds, name)
		require.NotNil(t, cmd, name)
		assert.Equal(t, name+" ENDPOINT", cmd.Use)
		assert.NotNil(t, cmd.RunE)
		assert.NotNil(t, cmd.Flags().Lookup("param"))
		assert.NotNil(t, cmd.Flags().Lookup("header"))
	}

	assert.NotNil(t, findCommand(cmds, "post").Flags().Lookup("data"))
	assert.Nil(t, findCommand(cmds, "get").Flags().Lookup("data"))
}

func TestGetCommand(t *testing.T) {
	resetViper(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/1", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("verbose"))
		assert.Equal(t, "abc", r.Header.Get("X-Trace"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		_, _ = w.Write([]byte(`{"id":1,"firstName":"Ada"}`))
	}))
	defer server.Close()

	viper.Set("base_url", server.URL)
	viper.Set("auth", AuthHeader)
	viper.Set("token", "secret")
	viper.Set("scheme", "Bearer")

	out, err := execute(t, findCommand(NewRequestCommands(), "get"), "users/1", "-p", "verbose=true", "-H", "X-Trace=abc")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, map[string]any{"id": float64(1), "firstName": "Ada"}, got)
}

func TestPostCommand(t *testing.T) {
	resetViper(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"firstName":"Ada","lastName":"Lovelace"}`, string(body))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":2}`))
	}))
	defer server.Close()

	viper.Set("base_url", server.URL)
	viper.Set("output", constants.FormatYAML)

	out, err := execute(t, findCommand(NewRequestCommands(), "post"), "users",
		"-d", `{"firstName":"Ada","lastName":"Lovelace"}`)
	require.NoError(t, err)
	assert.Equal(t, "id: 2\n", out)
}

func TestPostCommand_InvalidBody(t *testing.T) {
	resetViper(t)
	viper.Set("base_url", "https://api.example.com")

	_, err := execute(t, findCommand(NewRequestCommands(), "post"), "users", "-d", "{not json")
	require.ErrorIs(t, err, constants.ErrInvalidBody)
}

func TestRequestCommand_ClientError(t *testing.T) {
	resetViper(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"missing"}`))
	}))
	defer server.Close()

	viper.Set("base_url", server.URL)

	_, err := execute(t, findCommand(NewRequestCommands(), "delete"), "users/9")
	require.Error(t, err)
	assert.True(t, restkit.IsClientError(err))
	assert.True(t, strings.HasPrefix(err.Error(), "client error: 404 Not Found"))
	assert.Contains(t, err.Error(), `{"error":"missing"}`)
}

func TestRequestCommand_Retries(t *testing.T) {
	resetViper(t)

	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}

		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	viper.Set("base_url", server.URL)
	viper.Set("retries", 2)

	_, err := execute(t, findCommand(NewRequestCommands(), "get"), "health")
	require.NoError(t, err)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestRequestCommand_NoBaseURL(t *testing.T) {
	resetViper(t)

	_, err := execute(t, findCommand(NewRequestCommands(), "get"), "users")
	require.ErrorIs(t, err, constants.ErrNoBaseURL)
}

func pagesServer(t *testing.T) *httptest.Server {
	t.Helper()

	pages := map[string]string{
		"":  `{"items":[1,2],"nextPage":2}`,
		"2": `{"items":[3],"nextPage":3}`,
		"3": `{"items":[4]}`,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", r.URL.Query().Get("userId"))
		_, _ = w.Write([]byte(pages[r.URL.Query().Get("page")]))
	}))
	t.Cleanup(server.Close)

	return server
}

func TestPaginateCommand_NextField(t *testing.T) {
	resetViper(t)
	viper.Set("base_url", pagesServer(t).URL)

	out, err := execute(t, NewPaginateCommand(), "accounts", "-p", "userId=7", "--next-field", "nextPage", "--all")
	require.NoError(t, err)

	var pages []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &pages))
	require.Len(t, pages, 3)
	assert.Equal(t, []any{float64(4)}, pages[2]["items"])
}

func TestPaginateCommand_Expression(t *testing.T) {
	resetViper(t)
	viper.Set("base_url", pagesServer(t).URL)

	out, err := execute(t, NewPaginateCommand(), "accounts", "-p", "userId=7",
		"--next", `page.nextPage != nil ? {"page": page.nextPage} : nil`)
	require.NoError(t, err)

	decoder := json.NewDecoder(strings.NewReader(out))
	count := 0

	for decoder.More() {
		var page map[string]any
		require.NoError(t, decoder.Decode(&page))

		count++
	}

	assert.Equal(t, 3, count)
}

func TestPaginateCommand_MaxPages(t *testing.T) {
	resetViper(t)
	viper.Set("base_url", pagesServer(t).URL)

	out, err := execute(t, NewPaginateCommand(), "accounts", "-p", "userId=7",
		"--next-field", "nextPage", "--max-pages", "2", "--all")
	require.NoError(t, err)

	var pages []any
	require.NoError(t, json.Unmarshal([]byte(out), &pages))
	assert.Len(t, pages, 2)
}

func TestPaginateCommand_RequiresContinuation(t *testing.T) {
	resetViper(t)
	viper.Set("base_url", "https://api.example.com")

	_, err := execute(t, NewPaginateCommand(), "accounts")
	require.ErrorIs(t, err, ErrNoContinuation)

	_, err = execute(t, NewPaginateCommand(), "accounts", "--next", "page.(")
	require.Error(t, err)
}

func TestConfigCommands(t *testing.T) {
	resetViper(t)

	out, err := execute(t, NewConfigCommand(), "set", "base-url", "https://api.example.com")
	require.NoError(t, err)
	assert.Equal(t, "Set base_url = https://api.example.com\n", out)

	out, err = execute(t, NewConfigCommand(), "set", "token", "secret")
	require.NoError(t, err)
	assert.Equal(t, "Set token = ***\n", out)

	_, err = execute(t, NewConfigCommand(), "set", "retries", "many")
	require.ErrorIs(t, err, constants.ErrInvalidRetries)

	_, err = execute(t, NewConfigCommand(), "set", "retries", "--", "-1")
	require.ErrorIs(t, err, constants.ErrInvalidRetries)

	_, err = execute(t, NewConfigCommand(), "set", "colour", "blue")
	require.ErrorIs(t, err, constants.ErrUnknownConfigKey)

	out, err = execute(t, NewConfigCommand(), "show")
	require.NoError(t, err)

	var shown Config
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, "https://api.example.com", shown.BaseURL)
	assert.Equal(t, Masked, shown.Token)

	config, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "secret", config.Token)

	_, err = execute(t, NewConfigCommand(), "unset", "token")
	require.NoError(t, err)

	config, err = loadConfig()
	require.NoError(t, err)
	assert.Empty(t, config.Token)

	_, err = execute(t, NewConfigCommand(), "clear")
	require.NoError(t, err)

	config, err = loadConfig()
	require.NoError(t, err)
	assert.Equal(t, &Config{}, config)
}

func TestAuthenticationFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]any
		want     restkit.AuthenticationMethod
		wantErr  error
	}{
		{name: "default", want: restkit.NoAuthentication{}},
		{
			name:     "basic",
			settings: map[string]any{"auth": AuthBasic, "username": "ada", "password": "pw"},
			want:     &restkit.BasicAuthentication{Username: "ada", Password: "pw"},
		},
		{
			name:     "basic without username",
			settings: map[string]any{"auth": AuthBasic},
			wantErr:  constants.ErrUsernameRequired,
		},
		{
			name:     "header",
			settings: map[string]any{"auth": AuthHeader, "token": "t", "header_name": "X-Key", "scheme": ""},
			want:     &restkit.HeaderAuthentication{Token: "t", Parameter: "X-Key"},
		},
		{
			name:     "query without param",
			settings: map[string]any{"auth": AuthQuery, "token": "t"},
			wantErr:  constants.ErrQueryParamRequired,
		},
		{
			name:     "query",
			settings: map[string]any{"auth": AuthQuery, "token": "t", "query_param": "apikey"},
			want:     &restkit.QueryParameterAuthentication{Parameter: "apikey", Token: "t"},
		},
		{
			name:     "oauth2 without token url",
			settings: map[string]any{"auth": AuthOAuth2, "client_id": "id", "client_secret": "s"},
			wantErr:  constants.ErrTokenURLRequired,
		},
		{
			name:     "unknown",
			settings: map[string]any{"auth": "kerberos"},
			wantErr:  constants.ErrUnknownAuthMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)

			for key, value := range tt.settings {
				viper.Set(key, value)
			}

			got, err := authenticationFromConfig()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthenticationFromConfig_PromptsForPassword(t *testing.T) {
	resetViper(t)

	original := passwordReader
	t.Cleanup(func() { passwordReader = original })

	viper.Set("auth", AuthBasic)
	viper.Set("username", "ada")

	passwordReader = func() ([]byte, error) { return []byte("typed"), nil }

	got, err := authenticationFromConfig()
	require.NoError(t, err)
	assert.Equal(t, &restkit.BasicAuthentication{Username: "ada", Password: "typed"}, got)

	passwordReader = func() ([]byte, error) { return nil, errors.New("no tty") }

	_, err = authenticationFromConfig()
	require.ErrorIs(t, err, constants.ErrFailedReadPassword)
}

func TestPrintResult(t *testing.T) {
	resetViper(t)

	t.Run("table of objects", func(t *testing.T) {
		viper.Set("output", constants.FormatTable)

		var out bytes.Buffer
		err := printResult(&out, []any{
			map[string]any{"id": float64(1), "name": "Ada"},
			map[string]any{"id": float64(2), "name": "Grace"},
		})
		require.NoError(t, err)
		assert.Contains(t, strings.ToUpper(out.String()), "NAME")
		assert.Contains(t, out.String(), "Grace")
	})

	t.Run("raw response", func(t *testing.T) {
		var out bytes.Buffer
		err := printResult(&out, &restkit.Response{Body: []byte("plain")})
		require.NoError(t, err)
		assert.Equal(t, "plain\n", out.String())
	})

	t.Run("xml", func(t *testing.T) {
		root, err := restkit.XMLResponseHandler{}.Parse(&restkit.Response{Body: []byte("<xml><title>Test</title></xml>")})
		require.NoError(t, err)

		var out bytes.Buffer
		require.NoError(t, printResult(&out, root))
		assert.Contains(t, out.String(), "<title>Test</title>")
	})

	t.Run("unknown output", func(t *testing.T) {
		viper.Set("output", "csv")

		err := printResult(io.Discard, map[string]any{})
		require.ErrorIs(t, err, constants.ErrUnknownOutput)
	})
}

func TestVersionCommand(t *testing.T) {
	resetViper(t)

	out, err := execute(t, NewVersionCommand("1.2.3", "abc", "today"))
	require.NoError(t, err)

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "1.2.3", info["version"])
	assert.Equal(t, "abc", info["commit"])
	assert.Equal(t, "today", info["built"])
	assert.Equal(t, constants.DefaultUserAgent, info["user_agent"])
	assert.Equal(t, runtime.Version(), info["go_version"])

	viper.Set("user_agent", "inventory-sync/2.0")
	viper.Set("output", constants.FormatTable)

	out, err = execute(t, NewVersionCommand("1.2.3", "abc", "today"))
	require.NoError(t, err)
	assert.Contains(t, out, "inventory-sync/2.0")
	assert.Contains(t, out, "user_agent")
}

func TestConfigShow_Table(t *testing.T) {
	resetViper(t)

	require.NoError(t, saveConfigStruct(&Config{
		BaseURL:  "https://api.example.com",
		Password: "pw",
		Scopes:   []string{"read", "write"},
	}))

	viper.Set("output", constants.FormatTable)

	out, err := execute(t, NewConfigCommand(), "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Base Url")
	assert.Contains(t, out, "https://api.example.com")
	assert.Contains(t, out, Masked)
	assert.NotContains(t, out, "pw ")
	assert.Contains(t, out, `["read","write"]`)
	assert.NotContains(t, out, "Token")
}
