package cmd

import (
	"github.com/spf13/cobra"

	"ragchat-cli/cmd/utils"
)

var uploadCmd = &cobra.Command{
	Use:   "upload FILE",
	Short: "Upload and index a document",
	Long: `Upload a document to the backend so it can be searched.

The file must have one of the allowed extensions (by default .pdf, .doc,
.docx and .txt; see upload.allowed_extensions in ragchat.yaml).

Examples:
  ragchat upload report.pdf
  ragchat upload --server-url http://rag.internal:5000 notes.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := currentSettings()
		_, coord := newSession(s)

		utils.OutputInfo("Uploading %s to %s", args[0], s.Server.URL)
		snap, err := uploadDocument(commandContext(cmd), coord, args[0], s.AllowedExtensions)
		if err != nil {
			if snap.Selected != nil {
				utils.OutputInfoPlain("%s", snap.StatusText())
			}
			return err
		}
		utils.OutputInfoPlain("%s", snap.StatusText())
		utils.OutputInfo("File: %s", snap.Selected.Describe())
		if snap.Result.DocID != "" {
			utils.OutputInfo("Document ID: %s", snap.Result.DocID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}
