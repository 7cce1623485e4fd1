package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ragchat-cli/cmd/utils"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check that the backend is reachable",
	Long: `Show the resolved configuration and check that the backend answers HTTP.

The backend has no health route, so any HTTP response counts as reachable.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := currentSettings()
		source := s.Source
		if source == "" {
			source = "(defaults)"
		}
		timeout := "none"
		if s.Server.Timeout > 0 {
			timeout = s.Server.Timeout.String()
		}
		utils.OutputInfoPlain("Server:       %s", s.Server.URL)
		utils.OutputInfoPlain("Config:       %s", source)
		utils.OutputInfoPlain("Timeout:      %s", timeout)
		utils.OutputInfoPlain("Allowed:      %s", strings.Join(s.AllowedExtensions, ", "))

		code, err := utils.PingURL(commandContext(cmd), s.Server.URL)
		if err != nil {
			if utils.IsLocalhost(s.Server.URL) {
				utils.OutputWarning("Is the backend running locally? Start it or pass --server-url.")
			}
			return fmt.Errorf("backend not reachable at %s: %w", s.Server.URL, err)
		}
		utils.OutputSuccess("Backend reachable at %s (HTTP %d)", s.Server.URL, code)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
