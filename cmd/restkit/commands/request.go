package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/restkit/internal/constants"
	"github.com/fivetwenty-io/restkit/pkg/restkit"
)

type requestFlags struct {
	params   []string
	headers  []string
	data     string
	dataFile string
}

func (f *requestFlags) register(cmd *cobra.Command, withBody bool) {
	cmd.Flags().StringArrayVarP(&f.params, "param", "p", nil, "query parameter as KEY=VALUE (repeatable)")
	cmd.Flags().StringArrayVarP(&f.headers, "header", "H", nil, "extra header as KEY=VALUE (repeatable)")

	if withBody {
		cmd.Flags().StringVarP(&f.data, "data", "d", "", "request body")
		cmd.Flags().StringVar(&f.dataFile, "data-file", "", "read the request body from a file")
	}
}

// NewRequestCommands creates one command per HTTP verb.
func NewRequestCommands() []*cobra.Command {
	return []*cobra.Command{
		newRequestCommand(http.MethodGet, false),
		newRequestCommand(http.MethodPost, true),
		newRequestCommand(http.MethodPut, true),
		newRequestCommand(http.MethodPatch, true),
		newRequestCommand(http.MethodDelete, false),
	}
}

func newRequestCommand(method string, withBody bool) *cobra.Command {
	flags := &requestFlags{}
	name := strings.ToLower(method)

	cmd := &cobra.Command{
		Use:   name + " ENDPOINT",
		Short: "Send a " + method + " request",
		Long: fmt.Sprintf(`Send a %s request to ENDPOINT and print the parsed response.

ENDPOINT is resolved against the configured base URL unless it is absolute.`, method),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseKeyValues(flags.params)
			if err != nil {
				return err
			}

			headers, err := parseKeyValues(flags.headers)
			if err != nil {
				return err
			}

			var body any
			if withBody {
				body, err = requestBody(flags.data, flags.dataFile)
				if err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			call := withRetries(func(ctx context.Context) (any, error) {
				return send(ctx, client, method, args[0], body, restkit.Params(params), headers)
			}, client.Logger())

			payload, err := call(ctx)
			if err != nil {
				return describeError(err)
			}

			return printResult(cmd.OutOrStdout(), payload)
		},
	}

	flags.register(cmd, withBody)

	return cmd
}

func send(ctx context.Context, client *restkit.APIClient, method, endpoint string, body any, params restkit.Params, headers map[string]string) (any, error) {
	opts := []restkit.RequestOption{restkit.WithHeaders(headers)}

	switch method {
	case http.MethodPost:
		return client.Post(ctx, endpoint, body, params, opts...)
	case http.MethodPut:
		return client.Put(ctx, endpoint, body, params, opts...)
	case http.MethodPatch:
		return client.Patch(ctx, endpoint, body, params, opts...)
	case http.MethodDelete:
		return client.Delete(ctx, endpoint, params, opts...)
	default:
		return client.Get(ctx, endpoint, params, opts...)
	}
}

// requestBody returns the body to send. With the JSON formatter the text
// must be valid JSON and is decoded so the formatter re-encodes it;
// otherwise it is sent as is.
func requestBody(data, dataFile string) (any, error) {
	if dataFile != "" {
		// #nosec G304 -- the file is chosen by the user running the command
		raw, err := os.ReadFile(dataFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}

		data = string(raw)
	}

	if data == "" {
		return nil, nil
	}

	if strings.EqualFold(viper.GetString("format"), FormatNone) {
		return data, nil
	}

	var body any

	err := json.Unmarshal([]byte(data), &body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", constants.ErrInvalidBody, err)
	}

	return body, nil
}

func parseKeyValues(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidKeyValueMissing, pair)
		}

		values[strings.TrimSpace(key)] = value
	}

	return values, nil
}

// describeError adds the status band and server details to request errors.
func describeError(err error) error {
	var reqErr *restkit.APIRequestError
	if !errors.As(err, &reqErr) {
		return err
	}

	if reqErr.Info == "" {
		return fmt.Errorf("%s error: %w", reqErr.Kind, err)
	}

	return fmt.Errorf("%s error: %w\n%s", reqErr.Kind, err, reqErr.Info)
}
