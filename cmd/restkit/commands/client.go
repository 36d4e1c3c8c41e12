package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/fivetwenty-io/restkit/internal/constants"
	"github.com/fivetwenty-io/restkit/pkg/restkit"
)

// Authentication methods accepted by --auth.
const (
	AuthNone   = "none"
	AuthBasic  = "basic"
	AuthHeader = "header"
	AuthQuery  = "query"
	AuthOAuth2 = "oauth2"
)

// Request formats accepted by --format and handlers accepted by --response.
const (
	FormatNone   = "none"
	ResponseRaw  = "raw"
	ResponseXML  = "xml"
	ResponseJSON = constants.FormatJSON
)

// passwordReader reads a password without echo. Tests replace it.
var passwordReader = func() ([]byte, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	defer fmt.Fprintln(os.Stderr)

	return term.ReadPassword(int(syscall.Stdin))
}

// SetupLogger builds the CLI logger: human readable on stderr unless
// log_format is json. Verbose enables debug output.
func SetupLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if viper.GetBool("verbose") {
		level = zerolog.DebugLevel
	}

	if strings.EqualFold(viper.GetString("log_format"), constants.FormatJSON) {
		return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !term.IsTerminal(int(os.Stderr.Fd())),
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// createClient builds an API client from flags, environment and config file.
func createClient(ctx context.Context) (*restkit.APIClient, error) {
	baseURL := viper.GetString("base_url")
	if baseURL == "" {
		return nil, constants.ErrNoBaseURL
	}

	auth, err := authenticationFromConfig()
	if err != nil {
		return nil, err
	}

	formatter, err := formatterFromConfig()
	if err != nil {
		return nil, err
	}

	handler, err := handlerFromConfig()
	if err != nil {
		return nil, err
	}

	logger := restkit.NewZerologLogger(SetupLogger())

	opts := []restkit.Option{
		restkit.WithBaseURL(baseURL),
		restkit.WithAuthenticationMethod(auth),
		restkit.WithRequestFormatter(formatter),
		restkit.WithResponseHandler(handler),
		restkit.WithLogger(logger),
		restkit.WithTransport(restkit.NewHTTPTransport(transportOptions(logger)...)),
	}

	if timeout := viper.GetDuration("timeout"); timeout > 0 {
		opts = append(opts, restkit.WithTimeout(timeout))
	}

	client, err := restkit.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

func transportOptions(logger restkit.Logger) []restkit.HTTPTransportOption {
	var opts []restkit.HTTPTransportOption

	if viper.GetBool("verbose") {
		opts = append(opts, restkit.WithTransportLogger(logger))
	}

	if userAgent := viper.GetString("user_agent"); userAgent != "" {
		opts = append(opts, restkit.WithUserAgent(userAgent))
	}

	return opts
}

func authenticationFromConfig() (restkit.AuthenticationMethod, error) {
	method := strings.ToLower(viper.GetString("auth"))

	switch method {
	case "", AuthNone:
		return restkit.NoAuthentication{}, nil
	case AuthBasic:
		username := viper.GetString("username")
		if username == "" {
			return nil, constants.ErrUsernameRequired
		}

		password := viper.GetString("password")
		if password == "" {
			bytePassword, err := passwordReader()
			if err != nil {
				return nil, fmt.Errorf("%w: %w", constants.ErrFailedReadPassword, err)
			}

			password = string(bytePassword)
		}

		return &restkit.BasicAuthentication{Username: username, Password: password}, nil
	case AuthHeader:
		token := viper.GetString("token")
		if token == "" {
			return nil, constants.ErrTokenRequired
		}

		return &restkit.HeaderAuthentication{
			Token:     token,
			Parameter: viper.GetString("header_name"),
			Scheme:    viper.GetString("scheme"),
		}, nil
	case AuthQuery:
		token := viper.GetString("token")
		if token == "" {
			return nil, constants.ErrTokenRequired
		}

		param := viper.GetString("query_param")
		if param == "" {
			return nil, constants.ErrQueryParamRequired
		}

		return &restkit.QueryParameterAuthentication{Parameter: param, Token: token}, nil
	case AuthOAuth2:
		clientID := viper.GetString("client_id")
		clientSecret := viper.GetString("client_secret")

		if clientID == "" || clientSecret == "" {
			return nil, constants.ErrClientIDRequired
		}

		tokenURL := viper.GetString("token_url")
		if tokenURL == "" {
			return nil, constants.ErrTokenURLRequired
		}

		return &restkit.OAuth2ClientCredentials{
			TokenURL:     tokenURL,
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Scopes:       viper.GetStringSlice("scopes"),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", constants.ErrUnknownAuthMethod, method)
	}
}

func formatterFromConfig() (restkit.RequestFormatter, error) {
	format := strings.ToLower(viper.GetString("format"))

	switch format {
	case "", constants.FormatJSON:
		return restkit.JSONRequestFormatter{}, nil
	case FormatNone:
		return restkit.NoOpRequestFormatter{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", constants.ErrUnknownFormatter, format)
	}
}

func handlerFromConfig() (restkit.ResponseHandler, error) {
	handler := strings.ToLower(viper.GetString("response"))

	switch handler {
	case "", ResponseJSON:
		return restkit.JSONResponseHandler{}, nil
	case ResponseXML:
		return restkit.XMLResponseHandler{}, nil
	case ResponseRaw:
		return restkit.RawResponseHandler{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", constants.ErrUnknownHandler, handler)
	}
}

// withRetries wraps fn with the retry policy from --retries. Zero disables
// retrying.
func withRetries(fn restkit.Func[any], logger restkit.Logger) restkit.Func[any] {
	retries := viper.GetInt("retries")
	if retries <= 0 {
		return fn
	}

	return restkit.Retry(fn,
		restkit.WithMaxRetries(retries),
		restkit.WithRetryLogger(logger),
		restkit.WithRetryIf(func(err error) bool {
			return restkit.IsServerError(err) || restkit.IsUnexpected(err) || restkit.StatusCode(err) == 429
		}),
	)
}
