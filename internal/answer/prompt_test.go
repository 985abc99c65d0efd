package answer

import (
	"strings"
	"testing"

	"github.com/michelleprabhu/bankchatbot/internal/retrieval"
)

func TestAssemblePrompt_Policy(t *testing.T) {
	block := retrieval.ContextBlock{Lines: []string{"Overdraft fees are $35 per occurrence"}}

	prompt := AssemblePrompt(PolicyPreamble, block, "overdraft")

	want := "Based on the following bank policies, answer the question:\n\n" +
		"Overdraft fees are $35 per occurrence\n\n" +
		"Question: overdraft\nAnswer: "
	if prompt != want {
		t.Fatalf("unexpected prompt:\n%q\nwant:\n%q", prompt, want)
	}
}

func TestAssemblePrompt_NodeHeader(t *testing.T) {
	block := retrieval.ContextBlock{
		Header: retrieval.NodeHeader,
		Lines:  []string{"- Premier Checking: no monthly fee"},
	}

	prompt := AssemblePrompt(PreambleFor(retrieval.ModeNode), block, "checking fees")

	if !strings.HasPrefix(prompt, NodePreamble) {
		t.Fatal("missing node preamble")
	}
	if !strings.Contains(prompt, retrieval.NodeHeader+"\n- Premier Checking: no monthly fee") {
		t.Fatal("missing header and formatted line")
	}
	if !strings.HasSuffix(prompt, "Question: checking fees\nAnswer: ") {
		t.Fatal("missing question suffix")
	}
}

func TestAssemblePrompt_QueryIsLiteral(t *testing.T) {
	query := "  what about {braces} and %s?  "
	prompt := AssemblePrompt(PolicyPreamble, retrieval.ContextBlock{Lines: []string{retrieval.NoPoliciesFound}}, query)

	if !strings.Contains(prompt, "Question: "+query+"\n") {
		t.Fatal("query must be inserted verbatim")
	}
}

func TestPreambleFor(t *testing.T) {
	if PreambleFor(retrieval.ModePolicy) != PolicyPreamble {
		t.Error("policy mode should use the policy preamble")
	}
	if PreambleFor(retrieval.ModeNode) != NodePreamble {
		t.Error("node mode should use the node preamble")
	}
}

func TestTrimContext(t *testing.T) {
	block := retrieval.ContextBlock{
		Header: "H",
		Lines:  []string{"- aaaa", "- bbbb", "- cccc"},
	}

	tests := []struct {
		name      string
		maxChars  int
		wantLines int
	}{
		{name: "disabled", maxChars: 0, wantLines: 3},
		{name: "fits", maxChars: 100, wantLines: 3},
		{name: "drop one", maxChars: len("H\n- aaaa\n- bbbb"), wantLines: 2},
		{name: "keeps first line", maxChars: 1, wantLines: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimContext(block, tt.maxChars)
			if len(got.Lines) != tt.wantLines {
				t.Errorf("expected %d lines, got %d (%v)", tt.wantLines, len(got.Lines), got.Lines)
			}
			if got.Header != "H" {
				t.Errorf("header should be preserved, got %q", got.Header)
			}
		})
	}

	if len(block.Lines) != 3 {
		t.Error("TrimContext must not modify its input")
	}
}
