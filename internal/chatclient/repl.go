package chatclient

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/akolanti/pdfrag/internal/api"
	"github.com/charmbracelet/lipgloss"
)

const previewLength = 120

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	youStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	botStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	boldStyle   = lipgloss.NewStyle().Bold(true)
)

// Asker is the part of Client the loop needs.
type Asker interface {
	Health(ctx context.Context) error
	Ask(ctx context.Context, question string, history []api.ChatMessage) (api.ChatResponse, error)
}

// Run checks health, then reads questions until quit, exit or EOF. The history lives only in this loop.
func Run(ctx context.Context, client Asker, apiURL string, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, titleStyle.Render("=== PDF RAG Chatbot -- CLI ==="))
	fmt.Fprintf(out, "API: %s\n\n", apiURL)

	fmt.Fprint(out, "Checking API health... ")
	if err := client.Health(ctx); err != nil {
		fmt.Fprintln(out, errorStyle.Render("failed: "+err.Error()))
		return fmt.Errorf("could not reach the chat API at %s: %w", apiURL, err)
	}
	fmt.Fprintln(out, okStyle.Render("OK"))
	fmt.Fprintf(out, "\nType your questions below. Commands: %s (reset history), %s (exit)\n\n",
		boldStyle.Render("clear"), boldStyle.Render("quit"))

	var history []api.ChatMessage
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, youStyle.Render("You:")+" ")
		if !scanner.Scan() {
			fmt.Fprintln(out, "\n"+dimStyle.Render("Goodbye!"))
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(question) {
		case "":
			continue
		case "quit", "exit":
			fmt.Fprintln(out, dimStyle.Render("Goodbye!"))
			return nil
		case "clear":
			history = nil
			fmt.Fprintln(out, noticeStyle.Render("Conversation history cleared.")+"\n")
			continue
		}

		resp, err := client.Ask(ctx, question, history)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("Error: "+err.Error())+"\n")
			continue
		}

		fmt.Fprintf(out, "\n%s %s\n", botStyle.Render("Bot:"), resp.Answer)
		writeSources(out, resp.Sources)
		fmt.Fprintln(out)

		history = append(history,
			api.ChatMessage{Role: "user", Content: question},
			api.ChatMessage{Role: "assistant", Content: resp.Answer})
	}
}

func writeSources(out io.Writer, sources []api.SourceResponse) {
	if len(sources) == 0 {
		return
	}
	fmt.Fprintln(out, "\n"+dimStyle.Render("--- Sources ---"))
	for i, src := range sources {
		fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("  [%d] p.%d (%.2f%% match) %s", i+1, src.PageNumber, src.Score*100, src.Source)))
		fmt.Fprintln(out, dimStyle.Render("      "+Preview(src.Text)))
	}
}

// Preview flattens newlines and cuts text to 120 characters, marking the cut with "...".
func Preview(text string) string {
	flat := strings.ReplaceAll(text, "\n", " ")
	if utf8.RuneCountInString(flat) <= previewLength {
		return flat
	}
	return string([]rune(flat)[:previewLength]) + "..."
}
