// Package chat runs a question through retrieval, prompt assembly and
// generation, converting every failure into a reply the user can read.
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/michelleprabhu/bankchatbot/internal/answer"
	"github.com/michelleprabhu/bankchatbot/internal/observability"
	"github.com/michelleprabhu/bankchatbot/internal/retrieval"
	"github.com/michelleprabhu/bankchatbot/internal/session"
)

// Outcome classifies how a question was handled.
type Outcome string

const (
	OutcomeAnswered         Outcome = "answered"
	OutcomeRetrievalFailed  Outcome = "retrieval_failed"
	OutcomeGenerationFailed Outcome = "generation_failed"
)

// RetrievalFallback is shown when the knowledge graph could not be queried.
const RetrievalFallback = "Error retrieving relevant records from the knowledge graph. Please check the database connection and try again."

const generationFallbackFormat = "Error retrieving response from the language model (%s). Please check your API key and internet connection."

// GenerationFallback is shown when the model call fails.
func GenerationFallback(err error) string {
	return fmt.Sprintf(generationFallbackFormat, err)
}

// ContextBuilder turns a query into a context block.
type ContextBuilder interface {
	BuildContext(ctx context.Context, query string) (retrieval.ContextBlock, error)
	Mode() retrieval.Mode
}

// Generator produces an answer from an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*answer.Answer, error)
}

// Options tunes a Service. The zero value is usable.
type Options struct {
	// MaxContextChars bounds the context block in the prompt; 0 disables trimming.
	MaxContextChars int

	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// Reply is the result of one question. Failures are folded into Text.
type Reply struct {
	Text    string                 `json:"text"`
	Outcome Outcome                `json:"outcome"`
	Context retrieval.ContextBlock `json:"context"`
	Prompt  string                 `json:"prompt,omitempty"`

	Metadata *answer.GenerationMetadata `json:"metadata,omitempty"`
}

// Service orchestrates the question pipeline.
type Service struct {
	builder   ContextBuilder
	generator Generator
	opts      Options
	logger    *zap.Logger
}

func NewService(builder ContextBuilder, generator Generator, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		builder:   builder,
		generator: generator,
		opts:      opts,
		logger:    logger,
	}
}

// Ask answers query and records the exchange in sess. Requests on the same
// session run one at a time. Ask never returns an error: retrieval and
// generation failures become fallback replies.
func (s *Service) Ask(ctx context.Context, sess *session.Session, query string) Reply {
	var reply Reply
	sess.Exclusive(func() {
		reply = s.answer(ctx, query)
		sess.Append(
			session.Turn{Speaker: session.SpeakerUser, Text: query},
			session.Turn{Speaker: session.SpeakerBot, Text: reply.Text},
		)
	})
	s.countOutcome(reply.Outcome)
	return reply
}

func (s *Service) answer(ctx context.Context, query string) Reply {
	logger := s.logger.With(zap.String("mode", string(s.builder.Mode())))

	// Stage 1: retrieval
	start := time.Now()
	block, err := s.builder.BuildContext(ctx, query)
	s.observe("retrieval", start)
	if err != nil {
		logger.Error("[chat] retrieval failed",
			zap.Error(err),
			zap.Bool("store_error", errors.Is(err, retrieval.ErrRetrievalFailed)))
		return Reply{Text: RetrievalFallback, Outcome: OutcomeRetrievalFailed}
	}
	logger.Debug("[chat] retrieved context", zap.Int("lines", len(block.Lines)))

	// Stage 2: prompt assembly
	block = answer.TrimContext(block, s.opts.MaxContextChars)
	prompt := answer.AssemblePrompt(answer.PreambleFor(s.builder.Mode()), block, query)
	if s.opts.Metrics != nil {
		s.opts.Metrics.ContextLines.Observe(float64(len(block.Lines)))
	}
	logger.Debug("[chat] assembled prompt", zap.Int("chars", len(prompt)))

	// Stage 3: generation
	start = time.Now()
	ans, err := s.generator.Generate(ctx, prompt)
	s.observe("generation", start)
	if err != nil {
		logger.Error("[chat] generation failed",
			zap.Error(err),
			zap.Bool("model_error", errors.Is(err, answer.ErrGenerationFailed)))
		return Reply{
			Text:    GenerationFallback(err),
			Outcome: OutcomeGenerationFailed,
			Context: block,
			Prompt:  prompt,
		}
	}
	logger.Info("[chat] answered",
		zap.Int("context_lines", len(block.Lines)),
		zap.Int64("latency_ms", ans.Metadata.LatencyMS))

	meta := ans.Metadata
	return Reply{
		Text:     ans.Text,
		Outcome:  OutcomeAnswered,
		Context:  block,
		Prompt:   prompt,
		Metadata: &meta,
	}
}

func (s *Service) observe(stage string, start time.Time) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.ObserveStage(stage, time.Since(start))
	}
}

func (s *Service) countOutcome(o Outcome) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.AskOutcomes.WithLabelValues(string(o)).Inc()
	}
}
