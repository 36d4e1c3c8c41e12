package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultRequestTimeout is the per-request timeout a client uses unless overridden.
	DefaultRequestTimeout = 10 * time.Second

	// DefaultOAuth2Timeout bounds the one-time token fetch for OAuth2 authentication.
	DefaultOAuth2Timeout = 30 * time.Second
)

// Retry limits.
const (
	// DefaultRetryMax is the default number of extra attempts made by the retry wrapper.
	DefaultRetryMax = 4

	// DefaultRetryWaitMin is the smallest backoff between retry attempts.
	DefaultRetryWaitMin = 500 * time.Millisecond

	// DefaultRetryWaitMax caps the backoff between retry attempts.
	DefaultRetryWaitMax = 10 * time.Second

	// DefaultTransportRetryMax is the number of connection level retries done by the transport.
	// The pipeline itself never retries, so this stays at zero unless configured.
	DefaultTransportRetryMax = 0

	// DefaultTransportRetryWaitMin is the minimum wait for connection level retries.
	DefaultTransportRetryWaitMin = 1 * time.Second

	// DefaultTransportRetryWaitMax is the maximum wait for connection level retries.
	DefaultTransportRetryWaitMax = 30 * time.Second
)

// Response handling limits.
const (
	// MaxErrorInfoBytes caps the body excerpt attached to request errors.
	MaxErrorInfoBytes = 4096

	// DefaultMaxPages is the page limit used by the CLI when collecting all pages.
	DefaultMaxPages = 100
)

// User agent.
const (
	// DefaultUserAgent is sent by the default transport.
	DefaultUserAgent = "restkit/1.0"
)

// Output formats.
const (
	// FormatJSON is the JSON output format.
	FormatJSON = "json"

	// FormatYAML is the YAML output format.
	FormatYAML = "yaml"

	// FormatTable is the table output format.
	FormatTable = "table"
)

// Command line.
const (
	// MinimumArgumentCount is the number of arguments for KEY VALUE commands.
	MinimumArgumentCount = 2

	// ConfigDirName is the directory under $HOME holding the CLI config.
	ConfigDirName = ".restkit"

	// ConfigFileName is the CLI config file name without extension.
	ConfigFileName = "config"

	// EnvPrefix is the prefix for environment variables read by the CLI.
	EnvPrefix = "RESTKIT"
)
