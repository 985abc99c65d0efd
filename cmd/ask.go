package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/michelleprabhu/bankchatbot/internal/chat"
	"github.com/michelleprabhu/bankchatbot/internal/observability"
	"github.com/michelleprabhu/bankchatbot/internal/session"
)

var showContext bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question about bank policies",
	Long: `Ask a single question through the same pipeline the web chat uses.

This command:
1. Looks up matching records in the knowledge graph
2. Places them in a prompt together with your question
3. Prints the language model's answer

Required environment variables:
  GEMINI_API_KEY (or OPENAI_API_KEY with LLM_PROVIDER=openai)
  NEO4J_URI, NEO4J_USER, NEO4J_PASSWORD

Examples:
  bankchatbot ask "What are the overdraft fees?"
  bankchatbot ask "overdraft" --show-context`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&showContext, "show-context", false, "Print the records sent to the model")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]
	ctx := context.Background()

	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync()

	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	pipeline, err := chat.NewPipeline(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}

	reply := pipeline.Service.Ask(ctx, session.New("cli"), question)
	renderReply(cmd.OutOrStdout(), question, reply, showContext)
	return nil
}

var (
	headerColor   = lipgloss.Color("#F780FF") // Bright pink
	questionColor = lipgloss.Color("#8BE9FD") // Cyan
	answerColor   = lipgloss.Color("#E9E9F4") // Light purple/white
	contextColor  = lipgloss.Color("#6272A4") // Muted purple
	errorColor    = lipgloss.Color("#FF5555") // Red
	successColor  = lipgloss.Color("#50FA7B") // Green
	numberColor   = lipgloss.Color("#FF79C6") // Pink
)

func renderReply(w io.Writer, question string, reply chat.Reply, withContext bool) {
	headerStyle := lipgloss.NewStyle().
		Foreground(headerColor).
		Bold(true)

	questionStyle := lipgloss.NewStyle().
		Foreground(questionColor).
		Italic(true)

	answerStyle := lipgloss.NewStyle().
		Foreground(answerColor)

	contextStyle := lipgloss.NewStyle().
		Foreground(contextColor).
		Italic(true)

	errorStyle := lipgloss.NewStyle().
		Foreground(errorColor).
		Bold(true)

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("Question:"))
	fmt.Fprintln(w, questionStyle.Render(question))
	fmt.Fprintln(w)

	if withContext && reply.Outcome != chat.OutcomeRetrievalFailed {
		fmt.Fprintln(w, headerStyle.Render("Context:"))
		fmt.Fprintln(w, contextStyle.Render(reply.Context.String()))
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, headerStyle.Render("Answer:"))
	fmt.Fprintln(w)
	text := strings.TrimSpace(reply.Text)
	if reply.Outcome != chat.OutcomeAnswered {
		fmt.Fprintln(w, errorStyle.Render(text))
	} else {
		fmt.Fprintln(w, answerStyle.Render(text))
	}
	fmt.Fprintln(w)
}
