package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ragchat-cli/cmd/session"
	"ragchat-cli/internal/tui"
)

func answerLabel(mode session.Mode) string {
	if mode == session.ModeDocument {
		return "Document Answer"
	}
	return "Assistant Reply"
}

func inputPlaceholder(mode session.Mode) string {
	if mode == session.ModeDocument {
		return "Ask me about your document... What would you like to know?"
	}
	return "Type your message here... I'm ready to help!"
}

func modeSubtitle(mode session.Mode) string {
	if mode == session.ModeDocument {
		return "Ask me anything about your uploaded document"
	}
	return "Ask me anything and I'll help you out"
}

func sourceRefs(sources []session.Source) []tui.SourceRef {
	refs := make([]tui.SourceRef, 0, len(sources))
	for _, s := range sources {
		var ref tui.SourceRef
		if s.Metadata != nil {
			ref = tui.SourceRef{Source: s.Metadata.Source, Chunk: s.Metadata.Chunk, DocID: s.Metadata.DocID}
		}
		refs = append(refs, ref)
	}
	return refs
}

// formatAnswerText renders a chat snapshot for plain terminals and pipes.
func formatAnswerText(snap session.ChatSnapshot) string {
	if snap.Answer == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString(answerLabel(snap.Mode))
	if snap.Model != "" {
		fmt.Fprintf(&b, " (%s)", snap.Model)
	}
	b.WriteString(":\n")
	b.WriteString(snap.Answer)
	b.WriteString("\n")
	if len(snap.Sources) > 0 {
		b.WriteString("\nSources:\n")
		for i, ref := range sourceRefs(snap.Sources) {
			b.WriteString("  " + tui.FormatSource(i+1, ref) + "\n")
		}
	}
	return b.String()
}

func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

var errUploadInProgress = errors.New("an upload is already in progress")

// uploadDocument inspects path, selects it and uploads it, waiting for the result.
func uploadDocument(ctx context.Context, coord *session.Coordinator, path string, allowed []string) (session.UploadSnapshot, error) {
	f, err := session.InspectFile(path, allowed)
	if err != nil {
		return session.UploadSnapshot{}, err
	}
	coord.Uploads().SelectFile(f)
	done := coord.TriggerUpload(ctx)
	if done == nil {
		return coord.Uploads().Snapshot(), errUploadInProgress
	}
	<-done

	snap := coord.Uploads().Snapshot()
	if snap.Status != session.UploadSucceeded {
		if snap.LastError != nil {
			return snap, fmt.Errorf("upload of %s failed: %w", f.Name, snap.LastError)
		}
		return snap, fmt.Errorf("upload of %s failed", f.Name)
	}
	return snap, nil
}

// ask submits question and waits for the reply to be applied.
func ask(ctx context.Context, chat *session.ChatController, question string) (session.ChatSnapshot, error) {
	chat.SetQuestion(question)
	done := chat.Submit(ctx)
	if done == nil {
		if chat.Snapshot().Pending {
			return chat.Snapshot(), fmt.Errorf("still waiting for the previous answer")
		}
		return chat.Snapshot(), fmt.Errorf("question must not be empty")
	}
	<-done
	snap := chat.Snapshot()
	if snap.Status == session.TurnFailed {
		return snap, fmt.Errorf("%s: %w", strings.TrimPrefix(session.ChatErrorText, "❌ "), snap.LastError)
	}
	return snap, nil
}
