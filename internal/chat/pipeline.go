package chat

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/michelleprabhu/bankchatbot/internal/answer"
	"github.com/michelleprabhu/bankchatbot/internal/config"
	"github.com/michelleprabhu/bankchatbot/internal/graph"
	"github.com/michelleprabhu/bankchatbot/internal/observability"
	"github.com/michelleprabhu/bankchatbot/internal/retrieval"
)

// Pipeline bundles the production components built from a Config.
type Pipeline struct {
	Store   *graph.Neo4jStore
	Builder *retrieval.Builder
	Service *Service
}

// NewPipeline wires the Neo4j store, the context builder, the configured
// model client and the chat service.
func NewPipeline(ctx context.Context, cfg config.Config, logger *zap.Logger, metrics *observability.Metrics) (*Pipeline, error) {
	store, err := graph.NewNeo4jStore(cfg.Neo4j(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create graph store: %w", err)
	}

	builder, err := retrieval.NewBuilder(store, cfg.Retrieval())
	if err != nil {
		return nil, fmt.Errorf("failed to create context builder: %w", err)
	}

	llm, err := answer.NewLLM(ctx, cfg.LLM())
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM: %w", err)
	}
	generator := answer.NewGenerator(llm, cfg.LLM())

	service := NewService(builder, generator, Options{
		MaxContextChars: cfg.PromptMaxContextChars,
		Logger:          logger,
		Metrics:         metrics,
	})

	return &Pipeline{
		Store:   store,
		Builder: builder,
		Service: service,
	}, nil
}
