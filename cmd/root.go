package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ragchat-cli/cmd/backend"
	"ragchat-cli/cmd/config"
	"ragchat-cli/cmd/session"
	"ragchat-cli/cmd/utils"
)

var (
	debug       bool
	serverURL   string
	overrideCwd string
	configPath  string

	// settings is resolved once flags are parsed.
	settings *config.Settings
)

var rootCmd = &cobra.Command{
	Use:   "ragchat",
	Short: "Chat with a RAG backend, optionally grounded in an uploaded document",
	Long: `ragchat is a command line client for a retrieval-augmented chat backend.
Upload a document to index it, then ask questions that are answered from
its passages. Before any document is indexed, questions go to general chat.

Getting started:
  # Open an interactive session
  ragchat chat

  # Index a document and ask about it
  ragchat ask --document report.pdf "What are the key findings?"

  # Check that the backend is reachable
  ragchat status`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		utils.OverrideCwd = overrideCwd
		if debug {
			if err := utils.InitDebugLogger("", true); err != nil {
				utils.OutputWarning("%v", err)
			}
		}
		s, err := config.Resolve(config.ResolveOptions{
			ConfigPath: configPath,
			Dir:        utils.GetEffectiveCWD(),
			ServerURL:  serverURL,
		})
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		settings = s
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		utils.CloseDebugLogger()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		utils.OutputError("Error: %v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server-url", "", "Backend server URL (default: "+config.DefaultServerURL+")")
	rootCmd.PersistentFlags().StringVar(&overrideCwd, "cwd", "", "Override the current working directory for CLI operations")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a ragchat config file (yaml, toml or json)")
}

// currentSettings returns the resolved settings, falling back to defaults when a
// command runs without the root pre-run (as in tests).
func currentSettings() *config.Settings {
	if settings != nil {
		return settings
	}
	s, err := config.Resolve(config.ResolveOptions{ServerURL: serverURL})
	if err != nil {
		s = &config.Settings{
			Server:            config.ServerConfig{URL: config.DefaultServerURL},
			AllowedExtensions: append([]string(nil), config.DefaultAllowedExtensions...),
		}
	}
	return s
}

func newBackendClient(s *config.Settings) *backend.Client {
	if s.Server.Timeout > 0 {
		return backend.NewClient(s.Server.URL, utils.GetHTTPClientWithTimeout(s.Server.Timeout))
	}
	return backend.NewClient(s.Server.URL, utils.GetHTTPClient())
}

func stalePolicy(s *config.Settings) session.StalePolicy {
	if s.DiscardStale {
		return session.DiscardStale
	}
	return session.ApplyToCurrentMode
}

// newSession wires a backend client and a coordinator from settings.
func newSession(s *config.Settings) (*backend.Client, *session.Coordinator) {
	client := newBackendClient(s)
	return client, session.New(client, session.Options{StalePolicy: stalePolicy(s)})
}
