package cmd

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ragchat-cli/cmd/utils"
)

var chatDocument string

// isInteractive reports whether both stdin and stdout are terminals.
var isInteractive = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session with the backend.

Questions go to general chat until a document has been uploaded and indexed,
then they are answered from the document. In a terminal this opens a full
screen interface; with piped input it reads one question per line.

Examples:
  ragchat chat
  ragchat chat --document report.pdf
  echo "hello" | ragchat chat`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := currentSettings()
		client, coord := newSession(s)
		ctx, cancel := context.WithCancel(commandContext(cmd))
		defer cancel()

		if !isInteractive() {
			if chatDocument != "" {
				snap, err := uploadDocument(ctx, coord, chatDocument, s.AllowedExtensions)
				if err != nil {
					return err
				}
				utils.OutputInfoPlain("%s", snap.StatusText())
			}
			return runREPL(ctx, coord, s.AllowedExtensions, cmd.InOrStdin(), cmd.OutOrStdout())
		}

		ctrl := NewController(coord, client, s.AllowedExtensions)
		if err := ctrl.WatchConfig(ctx, s.Source, utils.GetEffectiveCWD(), serverURL); err != nil {
			utils.LogDebugf("config watch disabled: %v", err)
		}
		var startup tea.Cmd
		if chatDocument != "" {
			startup = tea.Sequence(ctrl.SelectFile(chatDocument), ctrl.Upload(ctx))
		}
		return runChatSessionTUI(ctx, ctrl, s.AllowedExtensions, startup)
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatDocument, "document", "", "Upload this file when the session starts")
	rootCmd.AddCommand(chatCmd)
}
