package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ragchat-cli/cmd/backend"
	"ragchat-cli/cmd/session"
	"ragchat-cli/cmd/utils"
	"ragchat-cli/internal/fakebackend"
)

const llamaDoc = "Llamas are domesticated South American camelids. " +
	"They have been used as pack animals by Andean cultures for centuries."

func newTestSession(t *testing.T) (*fakebackend.Server, *backend.Client, *session.Coordinator) {
	t.Helper()
	srv := fakebackend.New()
	t.Cleanup(srv.Close)
	client := backend.NewClient(srv.URL, &utils.DefaultHTTPClient{})
	return srv, client, session.New(client, session.Options{})
}

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// executeCommand runs the root command with args against a clean flag state and
// returns what the command wrote through cobra and through the output manager.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	debug, serverURL, overrideCwd, configPath = false, "", "", ""
	askDocument, askOutput, chatDocument = "", "text", ""
	settings = nil

	var out, errOut bytes.Buffer
	utils.SetOutputWritersForTest(&out, &errOut)
	t.Cleanup(func() { utils.SetOutputWritersForTest(nil, nil) })

	rootCmd.SetArgs(append([]string{"--cwd", t.TempDir()}, args...))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
	})

	_, err := rootCmd.ExecuteC()
	return out.String() + errOut.String(), err
}
