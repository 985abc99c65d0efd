package graph

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type writeCall struct {
	cypher string
	params map[string]any
}

type mockWriter struct {
	calls     []writeCall
	writeFunc func(ctx context.Context, cypher string, params map[string]any) error
}

func (m *mockWriter) Write(ctx context.Context, cypher string, params map[string]any) error {
	m.calls = append(m.calls, writeCall{cypher: cypher, params: params})
	if m.writeFunc != nil {
		return m.writeFunc(ctx, cypher, params)
	}
	return nil
}

func TestLoadSeedFile(t *testing.T) {
	data, err := LoadSeedFile("testdata/seed.yaml")
	require.NoError(t, err)

	require.Len(t, data.Policies, 3)
	assert.Equal(t, "Overdraft fees are $35 per occurrence", data.Policies[0].Text)

	require.Len(t, data.Nodes, 3)
	assert.Equal(t, "Product", data.Nodes[0].Label)
	assert.Equal(t, DefaultNodeLabel, data.Nodes[2].Label, "missing label should default")
}

func TestLoadSeedFile_Missing(t *testing.T) {
	_, err := LoadSeedFile("testdata/does-not-exist.yaml")
	require.Error(t, err)
}

func TestParseSeed_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "malformed yaml", raw: "policies: [text: "},
		{name: "empty policy", raw: "policies:\n  - text: \"  \"\n"},
		{name: "empty node name", raw: "nodes:\n  - label: Product\n    name: \"\"\n"},
		{name: "unsafe label", raw: "nodes:\n  - label: \"Product` DETACH DELETE n\"\n    name: x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSeed([]byte(tt.raw))
			require.ErrorIs(t, err, ErrInvalidSeed)
		})
	}
}

func TestSeed(t *testing.T) {
	data := SeedData{
		Policies: []PolicySeed{{Text: "Overdraft fees are $35 per occurrence"}},
		Nodes: []NodeSeed{
			{Label: "Product", Name: "Premier Checking", Description: "Checking account"},
		},
	}

	w := &mockWriter{}
	res, err := Seed(context.Background(), w, data)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Policies: 1, Nodes: 1}, res)

	require.Len(t, w.calls, 2)
	assert.True(t, strings.HasPrefix(w.calls[0].cypher, "MERGE (p:Policy"))
	assert.Equal(t, "Overdraft fees are $35 per occurrence", w.calls[0].params["text"])

	assert.Contains(t, w.calls[1].cypher, "MERGE (n:`Product` {name: $name})")
	assert.Equal(t, "Premier Checking", w.calls[1].params["name"])
	assert.Equal(t, "Checking account", w.calls[1].params["description"])
	assert.NotContains(t, w.calls[1].cypher, "Premier Checking", "values must be bound, not interpolated")
}

func TestSeed_WriteFailure(t *testing.T) {
	writeErr := errors.New("write rejected")
	w := &mockWriter{
		writeFunc: func(context.Context, string, map[string]any) error { return writeErr },
	}

	res, err := Seed(context.Background(), w, SeedData{
		Policies: []PolicySeed{{Text: "a"}, {Text: "b"}},
	})
	require.ErrorIs(t, err, writeErr)
	assert.Equal(t, 0, res.Policies)
	assert.Len(t, w.calls, 1, "seeding stops at the first failure")
}
