package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/restkit/cmd/restkit/commands"
	"github.com/fivetwenty-io/restkit/internal/constants"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "restkit",
	Short: "Configurable REST API client",
	Long: `A command-line client for REST APIs built on the restkit library.

Authentication, body format, response parsing, retries and pagination are
chosen with flags, RESTKIT_* environment variables or $HOME/.restkit/config.yml.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()

	// Global flags
	flags.StringP("config", "c", "", "config file (default is $HOME/.restkit/config.yml)")
	flags.StringP("base-url", "u", "", "base URL endpoints are resolved against")
	flags.String("auth", commands.AuthNone, "authentication method (none, basic, header, query, oauth2)")
	flags.StringP("token", "t", "", "token for header or query authentication")
	flags.String("username", "", "username for basic authentication")
	flags.String("password", "", "password for basic authentication (prompted when empty)")
	flags.String("header-name", "Authorization", "header carrying the token for header authentication")
	flags.String("scheme", "Bearer", "scheme prefixed to the token for header authentication")
	flags.String("query-param", "", "query parameter carrying the token for query authentication")
	flags.String("client-id", "", "client ID for oauth2 authentication")
	flags.String("client-secret", "", "client secret for oauth2 authentication")
	flags.String("token-url", "", "token endpoint for oauth2 authentication")
	flags.StringSlice("scopes", nil, "scopes for oauth2 authentication")
	flags.String("format", constants.FormatJSON, "request body format (json, none)")
	flags.String("response", commands.ResponseJSON, "response handler (json, xml, raw)")
	flags.Duration("timeout", constants.DefaultRequestTimeout, "per-request timeout")
	flags.Int("retries", 0, "retry server errors, 429 and connection failures this many times")
	flags.String("user-agent", "", "User-Agent header (default is "+constants.DefaultUserAgent+")")
	flags.StringP("output", "o", constants.FormatJSON, "output format (json, yaml, table)")
	flags.BoolP("verbose", "v", false, "verbose output")
	flags.String("log-format", "console", "log format (console, json)")

	// Bind flags to viper
	for _, name := range []string{
		"config", "base-url", "auth", "token", "username", "password", "header-name", "scheme",
		"query-param", "client-id", "client-secret", "token-url", "scopes", "format", "response",
		"timeout", "retries", "user-agent", "output", "verbose", "log-format",
	} {
		_ = viper.BindPFlag(viperKey(name), flags.Lookup(name))
	}

	// Add commands
	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewRequestCommands()...)
	rootCmd.AddCommand(commands.NewPaginateCommand())
}

// viperKey maps a flag name to its config file key.
func viperKey(flag string) string {
	return strings.ReplaceAll(flag, "-", "_")
}

func initConfig() {
	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in ~/.restkit/config.yml
		viper.AddConfigPath(filepath.Join(home, constants.ConfigDirName))
		viper.SetConfigType("yml")
		viper.SetConfigName(constants.ConfigFileName)
	}

	// Read in environment variables that match
	viper.SetEnvPrefix(constants.EnvPrefix)
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
