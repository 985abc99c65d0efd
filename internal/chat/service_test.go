package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/michelleprabhu/bankchatbot/internal/answer"
	"github.com/michelleprabhu/bankchatbot/internal/graph"
	"github.com/michelleprabhu/bankchatbot/internal/observability"
	"github.com/michelleprabhu/bankchatbot/internal/retrieval"
	"github.com/michelleprabhu/bankchatbot/internal/session"
)

// fakeStore matches Policy records the way the scenarios describe them.
type fakeStore struct {
	mu      sync.Mutex
	records []graph.Record
	err     error
	calls   int
}

func (f *fakeStore) Run(ctx context.Context, cypher string, params map[string]any) ([]graph.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func newTestService(t *testing.T, store graph.Store, llm answer.LLM, mode retrieval.Mode) (*Service, *observability.Metrics) {
	t.Helper()
	cfg := retrieval.DefaultConfig()
	cfg.Mode = mode
	builder, err := retrieval.NewBuilder(store, cfg)
	require.NoError(t, err)

	metrics := observability.NewMetrics("test")
	generator := answer.NewGenerator(llm, answer.DefaultLLMConfig())
	return NewService(builder, generator, Options{
		Logger:  zaptest.NewLogger(t),
		Metrics: metrics,
	}), metrics
}

func TestAsk_OverdraftScenario(t *testing.T) {
	store := &fakeStore{records: []graph.Record{
		{"policy_text": "Overdraft fees are $35 per occurrence"},
	}}
	llm := answer.NewMockLLM("Overdraft fees are $35 each time.")
	svc, metrics := newTestService(t, store, llm, retrieval.ModePolicy)
	sess := session.New("s1")

	reply := svc.Ask(context.Background(), sess, "overdraft")

	assert.Equal(t, OutcomeAnswered, reply.Outcome)
	assert.Equal(t, "Overdraft fees are $35 each time.", reply.Text)
	assert.Equal(t, []string{"Overdraft fees are $35 per occurrence"}, reply.Context.Lines)
	assert.Contains(t, llm.LastPrompt(), answer.PolicyPreamble)
	assert.Contains(t, llm.LastPrompt(), "Overdraft fees are $35 per occurrence")
	assert.Equal(t, reply.Prompt, llm.LastPrompt())
	require.NotNil(t, reply.Metadata)

	history := sess.History()
	require.Len(t, history, 2)
	assert.Equal(t, session.SpeakerUser, history[0].Speaker)
	assert.Equal(t, "overdraft", history[0].Text)
	assert.Equal(t, session.SpeakerBot, history[1].Speaker)
	assert.Equal(t, reply.Text, history[1].Text)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AskOutcomes.WithLabelValues("answered")))
}

func TestAsk_NoPoliciesStillCallsModel(t *testing.T) {
	llm := answer.NewMockLLM("")
	svc, _ := newTestService(t, &fakeStore{}, llm, retrieval.ModePolicy)

	reply := svc.Ask(context.Background(), session.New("s1"), "mortgage")

	assert.Equal(t, OutcomeAnswered, reply.Outcome)
	assert.Equal(t, []string{retrieval.NoPoliciesFound}, reply.Context.Lines)
	assert.Equal(t, 1, llm.Calls())
	assert.Contains(t, llm.LastPrompt(), retrieval.NoPoliciesFound)
}

func TestAsk_StoreFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	llm := answer.NewMockLLM("unused")
	svc, metrics := newTestService(t, store, llm, retrieval.ModePolicy)
	sess := session.New("s1")

	reply := svc.Ask(context.Background(), sess, "overdraft")

	assert.Equal(t, OutcomeRetrievalFailed, reply.Outcome)
	assert.Equal(t, RetrievalFallback, reply.Text)
	assert.NotContains(t, reply.Text, "connection refused")
	assert.Equal(t, 0, llm.Calls(), "model must not be called after a retrieval failure")

	history := sess.History()
	require.Len(t, history, 2)
	assert.Equal(t, RetrievalFallback, history[1].Text)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AskOutcomes.WithLabelValues("retrieval_failed")))
}

func TestAsk_ModelFailure(t *testing.T) {
	store := &fakeStore{records: []graph.Record{{"policy_text": "Overdraft fees are $35 per occurrence"}}}
	llm := answer.NewMockLLMWithError(errors.New("401 invalid api key"))
	svc, _ := newTestService(t, store, llm, retrieval.ModePolicy)
	sess := session.New("s1")

	reply := svc.Ask(context.Background(), sess, "overdraft")

	assert.Equal(t, OutcomeGenerationFailed, reply.Outcome)
	assert.True(t, strings.HasPrefix(reply.Text, "Error retrieving response from the language model ("), reply.Text)
	assert.True(t, strings.HasSuffix(reply.Text, "). Please check your API key and internet connection."), reply.Text)
	assert.Contains(t, reply.Text, "401 invalid api key")
	assert.Equal(t, sess.History()[1].Text, reply.Text)
}

func TestAsk_BlockedResponseUsesGenerationFallback(t *testing.T) {
	store := &fakeStore{records: []graph.Record{{"policy_text": "Overdraft fees are $35 per occurrence"}}}
	blocked := fmt.Errorf("%w: %w: finish reason SAFETY", answer.ErrLLMFailed, answer.ErrResponseBlocked)
	svc, _ := newTestService(t, store, answer.NewMockLLMWithError(blocked), retrieval.ModePolicy)

	reply := svc.Ask(context.Background(), session.New("s1"), "overdraft")

	assert.Equal(t, OutcomeGenerationFailed, reply.Outcome)
	assert.NotEqual(t, answer.NoAnswerText, reply.Text)
	assert.Contains(t, reply.Text, "finish reason SAFETY")
}

func TestAsk_NodeMode(t *testing.T) {
	store := &fakeStore{records: []graph.Record{
		{"name": "Overdraft Protection", "description": "Links savings to checking"},
	}}
	llm := answer.NewMockLLM("")
	svc, _ := newTestService(t, store, llm, retrieval.ModeNode)

	reply := svc.Ask(context.Background(), session.New("s1"), "overdraft")

	assert.Equal(t, retrieval.NodeHeader, reply.Context.Header)
	assert.Equal(t, []string{"- Overdraft Protection: Links savings to checking"}, reply.Context.Lines)
	assert.True(t, strings.HasPrefix(llm.LastPrompt(), answer.NodePreamble))
	assert.Equal(t, `Mock answer to "overdraft" based on 2 context lines.`, reply.Text)
}

func TestAsk_HistoryAccumulates(t *testing.T) {
	svc, _ := newTestService(t, &fakeStore{}, answer.NewMockLLM("ok"), retrieval.ModePolicy)
	sess := session.New("s1")

	for _, q := range []string{"first", "second", "third"} {
		svc.Ask(context.Background(), sess, q)
	}

	history := sess.History()
	require.Len(t, history, 6)
	assert.Equal(t, "first", history[0].Text)
	assert.Equal(t, "second", history[2].Text)
	assert.Equal(t, "third", history[4].Text)
}

func TestAsk_ConcurrentOnOneSessionKeepsPairs(t *testing.T) {
	svc, _ := newTestService(t, &fakeStore{}, answer.NewMockLLM(""), retrieval.ModePolicy)
	sess := session.New("s1")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Ask(context.Background(), sess, "q")
		}()
	}
	wg.Wait()

	history := sess.History()
	require.Len(t, history, 20)
	for i := 0; i < len(history); i += 2 {
		assert.Equal(t, session.SpeakerUser, history[i].Speaker)
		assert.Equal(t, session.SpeakerBot, history[i+1].Speaker)
	}
}

func TestGenerationFallback(t *testing.T) {
	got := GenerationFallback(errors.New("timeout"))
	assert.Equal(t, "Error retrieving response from the language model (timeout). Please check your API key and internet connection.", got)
}
