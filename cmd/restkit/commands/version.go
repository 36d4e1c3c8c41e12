package commands

import (
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/restkit/internal/constants"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display the restkit CLI build and the User-Agent its requests carry",
		RunE: func(cmd *cobra.Command, args []string) error {
			userAgent := viper.GetString("user_agent")
			if userAgent == "" {
				userAgent = constants.DefaultUserAgent
			}

			return printResult(cmd.OutOrStdout(), map[string]any{
				"version":    version,
				"commit":     commit,
				"built":      date,
				"user_agent": userAgent,
				"go_version": runtime.Version(),
			})
		},
	}
}
