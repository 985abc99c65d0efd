package answer

import (
	"strings"

	"github.com/michelleprabhu/bankchatbot/internal/retrieval"
)

const (
	// PolicyPreamble instructs the model to answer from bank policy text.
	PolicyPreamble = "Based on the following bank policies, answer the question:"

	// NodePreamble instructs the model to answer from generic graph records.
	NodePreamble = "You are a helpful banking assistant. Use the following information " +
		"from the knowledge graph to answer the question. If the information does not " +
		"cover the question, say so instead of guessing."

	questionMarker = "Question: "
)

// PreambleFor returns the instructional preamble matching a retrieval mode.
func PreambleFor(mode retrieval.Mode) string {
	if mode == retrieval.ModeNode {
		return NodePreamble
	}
	return PolicyPreamble
}

// AssemblePrompt concatenates the preamble, the context block and the literal query.
func AssemblePrompt(preamble string, block retrieval.ContextBlock, query string) string {
	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("\n\n")
	b.WriteString(block.String())
	b.WriteString("\n\n")
	b.WriteString(questionMarker)
	b.WriteString(query)
	b.WriteString("\nAnswer: ")
	return b.String()
}

// TrimContext drops trailing lines until the rendered block fits in maxChars.
// The header and the first line are always kept. maxChars <= 0 disables trimming.
func TrimContext(block retrieval.ContextBlock, maxChars int) retrieval.ContextBlock {
	if maxChars <= 0 || len(block.String()) <= maxChars {
		return block
	}

	lines := append([]string(nil), block.Lines...)
	for len(lines) > 1 {
		lines = lines[:len(lines)-1]
		trimmed := retrieval.ContextBlock{Header: block.Header, Lines: lines}
		if len(trimmed.String()) <= maxChars {
			return trimmed
		}
	}
	return retrieval.ContextBlock{Header: block.Header, Lines: lines}
}
