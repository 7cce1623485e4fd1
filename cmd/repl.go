package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"ragchat-cli/cmd/session"
	"ragchat-cli/cmd/utils"
)

const replHelp = `Commands:
  /upload PATH   upload and index a document
  /clear         clear the question and answer
  /status        show mode, document and upload status
  /help          show this help
  /quit          exit (also /exit)
Anything else is sent as a question.`

// runREPL runs a line-oriented session for non-interactive terminals and pipes.
// It returns when in is exhausted or /quit is entered.
func runREPL(ctx context.Context, coord *session.Coordinator, allowed []string, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	chat := coord.Chat()

	fmt.Fprintf(out, "%s: %s. Type /help for commands.\n", chat.Mode().Label(), modeSubtitle(chat.Mode()))
	for {
		fmt.Fprintf(out, "[%s] > ", chat.Mode().Label())
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			name, arg, _ := strings.Cut(line, " ")
			arg = strings.TrimSpace(arg)
			switch strings.ToLower(name) {
			case "/quit", "/exit":
				return nil
			case "/help":
				fmt.Fprintln(out, replHelp)
			case "/clear":
				chat.Clear()
				fmt.Fprintln(out, "Cleared.")
			case "/status":
				fmt.Fprintln(out, replStatus(coord))
			case "/upload":
				if arg == "" {
					fmt.Fprintln(out, "usage: /upload PATH")
					continue
				}
				before := chat.Mode()
				snap, err := uploadDocument(ctx, coord, arg, allowed)
				if snap.Selected != nil {
					fmt.Fprintln(out, snap.StatusText())
				}
				if err != nil {
					utils.LogDebugf("repl upload: %v", err)
					fmt.Fprintf(out, "Error: %v\n", err)
					continue
				}
				if after := chat.Mode(); after != before {
					fmt.Fprintf(out, "Switched to %s. %s\n", after.Label(), modeSubtitle(after))
				}
			default:
				fmt.Fprintf(out, "Unknown command %s. Type /help for commands.\n", name)
			}
			continue
		}

		snap, err := ask(ctx, chat, line)
		if err != nil {
			utils.LogDebugf("repl ask: %v", err)
			if snap.Status == session.TurnFailed {
				fmt.Fprintln(out, snap.Answer)
			} else {
				fmt.Fprintf(out, "Error: %v\n", err)
			}
			continue
		}
		fmt.Fprint(out, formatAnswerText(snap))
	}
}

func replStatus(coord *session.Coordinator) string {
	upload := coord.Uploads().Snapshot()
	chat := coord.Chat().Snapshot()

	var b strings.Builder
	fmt.Fprintf(&b, "Mode:     %s\n", chat.Mode.Label())
	indicator := coord.Indicator().String()
	if indicator == "" {
		indicator = "No document"
	}
	fmt.Fprintf(&b, "Document: %s\n", indicator)
	if upload.Selected != nil {
		fmt.Fprintf(&b, "File:     %s\n", upload.Selected.Describe())
	}
	if text := upload.StatusText(); text != "" {
		fmt.Fprintf(&b, "Upload:   %s\n", text)
	}
	return strings.TrimRight(b.String(), "\n")
}
