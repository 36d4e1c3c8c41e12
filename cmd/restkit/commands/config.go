package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/restkit/internal/constants"
)

// Masked replaces secrets in printed configuration.
const Masked = "***"

// Config represents the CLI configuration file.
type Config struct {
	BaseURL      string   `json:"base_url,omitempty"      yaml:"base_url,omitempty"`
	Auth         string   `json:"auth,omitempty"          yaml:"auth,omitempty"`
	Token        string   `json:"token,omitempty"         yaml:"token,omitempty"`
	Username     string   `json:"username,omitempty"      yaml:"username,omitempty"`
	Password     string   `json:"password,omitempty"      yaml:"password,omitempty"`
	HeaderName   string   `json:"header_name,omitempty"   yaml:"header_name,omitempty"`
	Scheme       string   `json:"scheme,omitempty"        yaml:"scheme,omitempty"`
	QueryParam   string   `json:"query_param,omitempty"   yaml:"query_param,omitempty"`
	ClientID     string   `json:"client_id,omitempty"     yaml:"client_id,omitempty"`
	ClientSecret string   `json:"client_secret,omitempty" yaml:"client_secret,omitempty"`
	TokenURL     string   `json:"token_url,omitempty"     yaml:"token_url,omitempty"`
	Scopes       []string `json:"scopes,omitempty"        yaml:"scopes,omitempty"`
	Format       string   `json:"format,omitempty"        yaml:"format,omitempty"`
	Response     string   `json:"response,omitempty"      yaml:"response,omitempty"`
	Timeout      string   `json:"timeout,omitempty"       yaml:"timeout,omitempty"`
	Retries      int      `json:"retries,omitempty"       yaml:"retries,omitempty"`
	Output       string   `json:"output,omitempty"        yaml:"output,omitempty"`
	UserAgent    string   `json:"user_agent,omitempty"    yaml:"user_agent,omitempty"`
}

// configFields maps configuration keys to setters on Config.
var configFields = map[string]func(*Config, string) error{
	"base_url":      func(c *Config, v string) error { c.BaseURL = v; return nil },
	"auth":          func(c *Config, v string) error { c.Auth = v; return nil },
	"token":         func(c *Config, v string) error { c.Token = v; return nil },
	"username":      func(c *Config, v string) error { c.Username = v; return nil },
	"password":      func(c *Config, v string) error { c.Password = v; return nil },
	"header_name":   func(c *Config, v string) error { c.HeaderName = v; return nil },
	"scheme":        func(c *Config, v string) error { c.Scheme = v; return nil },
	"query_param":   func(c *Config, v string) error { c.QueryParam = v; return nil },
	"client_id":     func(c *Config, v string) error { c.ClientID = v; return nil },
	"client_secret": func(c *Config, v string) error { c.ClientSecret = v; return nil },
	"token_url":     func(c *Config, v string) error { c.TokenURL = v; return nil },
	"format":        func(c *Config, v string) error { c.Format = v; return nil },
	"response":      func(c *Config, v string) error { c.Response = v; return nil },
	"output":        func(c *Config, v string) error { c.Output = v; return nil },
	"user_agent":    func(c *Config, v string) error { c.UserAgent = v; return nil },
	"scopes": func(c *Config, v string) error {
		c.Scopes = nil
		if v == "" {
			return nil
		}

		for _, scope := range strings.Split(v, ",") {
			if scope = strings.TrimSpace(scope); scope != "" {
				c.Scopes = append(c.Scopes, scope)
			}
		}

		return nil
	},
	"timeout": func(c *Config, v string) error {
		if v == "" {
			c.Timeout = ""

			return nil
		}

		_, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", v, err)
		}

		c.Timeout = v

		return nil
	},
	"retries": func(c *Config, v string) error {
		if v == "" {
			c.Retries = 0

			return nil
		}

		retries, err := strconv.Atoi(v)
		if err != nil || retries < 0 {
			return fmt.Errorf("%w: %q", constants.ErrInvalidRetries, v)
		}

		c.Retries = retries

		return nil
	},
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage restkit CLI configuration stored in $HOME/.restkit/config.yml",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())
	cmd.AddCommand(newConfigClearCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	var showSecrets bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the configuration file contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			if !showSecrets {
				config = config.masked()
			}

			return displayConfig(cmd.OutOrStdout(), config)
		},
	}

	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print tokens and passwords in clear text")

	return cmd
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value. Keys: " + strings.Join(configKeys(), ", "),
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateConfig(cmd.OutOrStdout(), args[0], args[1], "Set")
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateConfig(cmd.OutOrStdout(), args[0], "", "Unset")
		},
	}
}

func newConfigClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear configuration",
		Long:  "Remove the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, err := configFilePath()
			if err != nil {
				return err
			}

			err = os.Remove(configFile)
			if err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove config file: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Cleared all configuration")

			return err
		},
	}
}

func updateConfig(w io.Writer, key, value, action string) error {
	key = strings.ReplaceAll(strings.ToLower(key), "-", "_")

	set, ok := configFields[key]
	if !ok {
		return fmt.Errorf("%w: %s (valid keys: %s)", constants.ErrUnknownConfigKey, key, strings.Join(configKeys(), ", "))
	}

	config, err := loadConfig()
	if err != nil {
		return err
	}

	err = set(config, value)
	if err != nil {
		return err
	}

	err = saveConfigStruct(config)
	if err != nil {
		return err
	}

	if action == "Unset" {
		_, err = fmt.Fprintf(w, "Unset %s\n", key)

		return err
	}

	if isSecretKey(key) {
		value = Masked
	}

	_, err = fmt.Fprintf(w, "%s %s = %s\n", action, key, value)

	return err
}

func configKeys() []string {
	keys := make([]string, 0, len(configFields))
	for key := range configFields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

func isSecretKey(key string) bool {
	switch key {
	case "token", "password", "client_secret":
		return true
	default:
		return false
	}
}

func (c *Config) masked() *Config {
	out := *c
	if out.Token != "" {
		out.Token = Masked
	}

	if out.Password != "" {
		out.Password = Masked
	}

	if out.ClientSecret != "" {
		out.ClientSecret = Masked
	}

	return &out
}

// configFilePath returns the file in use, or $HOME/.restkit/config.yml.
func configFilePath() (string, error) {
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, constants.ConfigDirName, constants.ConfigFileName+".yml"), nil
}

// loadConfig reads the configuration file. A missing file is an empty config.
func loadConfig() (*Config, error) {
	configFile, err := configFilePath()
	if err != nil {
		return nil, err
	}

	config := &Config{}

	// #nosec G304 -- configFile comes from the user's home or --config
	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return config, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func displayConfig(w io.Writer, config *Config) error {
	switch viper.GetString("output") {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", defaultJSONIndent)

		return encoder.Encode(config)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)
		defer func() { _ = encoder.Close() }()

		return encoder.Encode(config)
	default:
		// Round trip through yaml so rows follow the config file keys
		data, err := yaml.Marshal(config)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}

		values := map[string]any{}

		err = yaml.Unmarshal(data, &values)
		if err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}

		title := cases.Title(language.English)
		table := tablewriter.NewWriter(w)
		table.Header("Property", "Value")

		for _, key := range configKeys() {
			value, ok := values[key]
			if !ok {
				continue
			}

			_ = table.Append(title.String(strings.ReplaceAll(key, "_", " ")), cell(value))
		}

		return renderTable(table)
	}
}
