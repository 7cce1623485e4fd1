package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ragchat-cli/cmd/session"
	"ragchat-cli/cmd/utils"
)

var (
	askDocument string
	askOutput   string
)

type askResult struct {
	Mode      string           `json:"mode"`
	Question  string           `json:"question"`
	Answer    string           `json:"answer"`
	Model     string           `json:"model,omitempty"`
	Sources   []session.Source `json:"sources"`
	RequestID string           `json:"request_id"`
	DocID     string           `json:"doc_id,omitempty"`
	Chunks    int              `json:"chunks,omitempty"`
}

var askCmd = &cobra.Command{
	Use:   "ask [flags] QUESTION...",
	Short: "Ask a single question",
	Long: `Ask one question and print the answer.

Without --document the question goes to general chat. With --document the
file is uploaded first and the question is answered from its passages.

Examples:
  ragchat ask "What is retrieval-augmented generation?"
  ragchat ask --document report.pdf "Summarise the conclusions"
  ragchat ask --document notes.txt --output json "Who attended?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if askOutput != "text" && askOutput != "json" {
			return fmt.Errorf("invalid --output %q: must be text or json", askOutput)
		}
		s := currentSettings()
		_, coord := newSession(s)
		ctx := commandContext(cmd)

		var upload session.UploadSnapshot
		if askDocument != "" {
			snap, err := uploadDocument(ctx, coord, askDocument, s.AllowedExtensions)
			if err != nil {
				return err
			}
			upload = snap
			if askOutput == "text" {
				utils.OutputInfoPlain("%s", snap.StatusText())
			}
		}

		question := strings.Join(args, " ")
		snap, err := ask(ctx, coord.Chat(), question)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if askOutput == "json" {
			res := askResult{
				Mode:      snap.Mode.String(),
				Question:  question,
				Answer:    snap.Answer,
				Model:     snap.Model,
				Sources:   snap.Sources,
				RequestID: snap.RequestID,
			}
			if res.Sources == nil {
				res.Sources = []session.Source{}
			}
			if upload.Result != nil {
				res.DocID = upload.Result.DocID
				res.Chunks = upload.Result.Chunks
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		fmt.Fprint(out, formatAnswerText(snap))
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askDocument, "document", "", "Upload this file first and answer from it")
	askCmd.Flags().StringVarP(&askOutput, "output", "o", "text", "Output format: text or json")
	rootCmd.AddCommand(askCmd)
}
