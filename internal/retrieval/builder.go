package retrieval

import (
	"context"
	"fmt"

	"github.com/michelleprabhu/bankchatbot/internal/graph"
)

// Builder turns a free-text query into a single graph lookup and flattens the
// result set into a ContextBlock.
type Builder struct {
	store  graph.Store
	config Config
	cypher string
}

// NewBuilder creates a Builder. Query text is fixed at construction; the user
// query is only ever sent as the $query parameter.
func NewBuilder(store graph.Store, config Config) (*Builder, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store cannot be nil", ErrInvalidConfig)
	}

	config = config.withDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Builder{
		store:  store,
		config: config,
		cypher: buildCypher(config),
	}, nil
}

// Mode returns the configured search mode.
func (b *Builder) Mode() Mode {
	return b.config.Mode
}

// BuildContext performs exactly one store round trip and formats the results.
// The query is not validated or normalized.
func (b *Builder) BuildContext(ctx context.Context, query string) (ContextBlock, error) {
	params := map[string]any{"query": query}
	if b.config.Mode == ModeNode {
		params["limit"] = int64(b.config.Limit)
	}

	records, err := b.store.Run(ctx, b.cypher, params)
	if err != nil {
		return ContextBlock{}, fmt.Errorf("%w: %w", ErrRetrievalFailed, err)
	}

	switch b.config.Mode {
	case ModeNode:
		return formatNodes(records, b.config.Limit), nil
	default:
		return formatPolicies(records), nil
	}
}

func buildCypher(c Config) string {
	if c.Mode == ModeNode {
		return fmt.Sprintf(
			"MATCH (n) WHERE toLower(n.`%[1]s`) CONTAINS toLower($query) "+
				"RETURN n.`%[1]s` AS name, n.`%[2]s` AS description LIMIT $limit",
			c.NameProperty, c.DescriptionProperty,
		)
	}
	return fmt.Sprintf(
		"MATCH (p:`%[1]s`) WHERE p.`%[2]s` CONTAINS $query RETURN p.`%[2]s` AS policy_text",
		c.Label, c.TextProperty,
	)
}

func formatPolicies(records []graph.Record) ContextBlock {
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, rec.String("policy_text"))
	}
	if len(lines) == 0 {
		lines = []string{NoPoliciesFound}
	}
	return ContextBlock{Lines: lines}
}

func formatNodes(records []graph.Record, limit int) ContextBlock {
	// The store applies LIMIT too; the slice guard keeps the cap even if it does not.
	if len(records) > limit {
		records = records[:limit]
	}
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, fmt.Sprintf("- %s: %s", rec.String("name"), rec.String("description")))
	}
	return ContextBlock{Header: NodeHeader, Lines: lines}
}
