package constants

import "errors"

// Configuration errors.
var (
	ErrNoBaseURL         = errors.New("no base URL configured, use --base-url or 'restkit config set base_url <url>'")
	ErrUnknownConfigKey  = errors.New("unknown configuration key")
	ErrUnknownAuthMethod = errors.New("unknown authentication method")
	ErrUnknownFormatter  = errors.New("unknown request format")
	ErrUnknownHandler    = errors.New("unknown response handler")
	ErrUnknownOutput     = errors.New("unknown output format")
)

// Authentication errors.
var (
	ErrTokenRequired          = errors.New("a token is required for this authentication method")
	ErrQueryParamRequired     = errors.New("--query-param is required for query authentication")
	ErrUsernameRequired       = errors.New("--username is required for basic authentication")
	ErrClientIDRequired       = errors.New("--client-id and --client-secret are required for oauth2 authentication")
	ErrTokenURLRequired       = errors.New("--token-url is required for oauth2 authentication")
	ErrFailedReadPassword     = errors.New("failed to read password")
	ErrInvalidKeyValueMissing = errors.New("expected KEY=VALUE")
	ErrInvalidRetries         = errors.New("retries must be a non-negative integer")
)

// Request errors.
var (
	ErrInvalidBody = errors.New("request body is not valid JSON")
)
