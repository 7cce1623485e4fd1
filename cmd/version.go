package cmd

import (
	"github.com/spf13/cobra"

	"ragchat-cli/cmd/utils"
	"ragchat-cli/cmd/version"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of ragchat",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		utils.OutputInfo("%s", version.Describe(version.CurrentVersion))
		utils.LogDebugf("user agent: %s", version.UserAgent())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
