package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/michelleprabhu/bankchatbot/internal/graph"
	"github.com/michelleprabhu/bankchatbot/internal/retrieval"
)

var searchJSON bool

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Show the knowledge graph records that match a query",
	Long: `Search runs only the retrieval step and prints the context block that
would be sent to the language model.

Examples:
  bankchatbot search "overdraft"
  RETRIEVAL_MODE=node bankchatbot search "savings" --json`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print the context block as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	ctx := context.Background()

	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := graph.NewNeo4jStore(cfg.Neo4j(), logger)
	if err != nil {
		return err
	}
	builder, err := retrieval.NewBuilder(store, cfg.Retrieval())
	if err != nil {
		return err
	}

	block, err := builder.BuildContext(ctx, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return writeSearchJSON(cmd.OutOrStdout(), query, builder.Mode(), block)
	}
	return outputTable(cmd.OutOrStdout(), builder.Mode(), block)
}

type searchResult struct {
	Query   string                 `json:"query"`
	Mode    retrieval.Mode         `json:"mode"`
	Context retrieval.ContextBlock `json:"context"`
}

func writeSearchJSON(w io.Writer, query string, mode retrieval.Mode, block retrieval.ContextBlock) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(searchResult{Query: query, Mode: mode, Context: block}); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	return nil
}

func outputTable(w io.Writer, mode retrieval.Mode, block retrieval.ContextBlock) error {
	const (
		numWidth    = 6
		recordWidth = 72
	)

	headerStyle := lipgloss.NewStyle().
		Foreground(headerColor).
		Bold(true).
		Padding(0, 1)

	borderStyle := lipgloss.NewStyle().Foreground(contextColor)

	if block.Header != "" {
		fmt.Fprintln(w, headerStyle.Render(block.Header))
	}

	headers := []string{
		headerStyle.Width(numWidth).Render("#"),
		headerStyle.Width(recordWidth).Render("RECORD"),
	}
	fmt.Fprintln(w, strings.Join(headers, borderStyle.Render("│")))
	fmt.Fprintln(w, borderStyle.Render(strings.Repeat("─", numWidth)+"┼"+strings.Repeat("─", recordWidth)))

	numStyle := lipgloss.NewStyle().
		Foreground(numberColor).
		Padding(0, 1).
		Width(numWidth).
		Align(lipgloss.Right)

	recordStyle := lipgloss.NewStyle().
		Foreground(answerColor).
		Padding(0, 1).
		Width(recordWidth)

	for i, line := range block.Lines {
		cells := []string{
			numStyle.Render(fmt.Sprintf("%d", i+1)),
			recordStyle.Render(line),
		}
		fmt.Fprintln(w, strings.Join(cells, borderStyle.Render("│")))
	}

	summaryStyle := lipgloss.NewStyle().
		Foreground(questionColor).
		Italic(true)

	fmt.Fprintln(w)
	fmt.Fprintln(w, summaryStyle.Render(fmt.Sprintf("Total: %d lines (%s mode)", len(block.Lines), mode)))
	return nil
}
