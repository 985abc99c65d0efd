package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/michelleprabhu/bankchatbot/internal/graph"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load sample policies and records into Neo4j",
	Long: `Seed reads a YAML file of policies and named records and MERGEs them
into the knowledge graph. Running it twice does not create duplicates.

Example:
  bankchatbot seed --file internal/graph/testdata/seed.yaml`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringVar(&seedFile, "file", "", "YAML seed file (required)")
	_ = seedCmd.MarkFlagRequired("file")
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	data, err := graph.LoadSeedFile(seedFile)
	if err != nil {
		return err
	}

	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := graph.NewNeo4jStore(cfg.Neo4j(), logger)
	if err != nil {
		return err
	}

	result, err := graph.Seed(ctx, store, data)
	if err != nil {
		return fmt.Errorf("seeding failed after %d policies and %d nodes: %w", result.Policies, result.Nodes, err)
	}

	successStyle := lipgloss.NewStyle().Foreground(successColor)
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(
		fmt.Sprintf("✓ Seeded %d policies and %d nodes from %s", result.Policies, result.Nodes, seedFile)))
	return nil
}
