package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRecordString(t *testing.T) {
	rec := Record{
		"name":  "Premier Checking",
		"count": int64(3),
		"empty": nil,
	}

	assert.Equal(t, "Premier Checking", rec.String("name"))
	assert.Equal(t, "3", rec.String("count"))
	assert.Equal(t, "", rec.String("empty"))
	assert.Equal(t, "", rec.String("missing"))
}

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "label", input: "Policy"},
		{name: "underscore", input: "_private_1"},
		{name: "empty", input: "", wantErr: true},
		{name: "leading digit", input: "1Policy", wantErr: true},
		{name: "backtick", input: "Policy`) DETACH DELETE n //", wantErr: true},
		{name: "space", input: "Bank Policy", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidName)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestConvertRecords(t *testing.T) {
	records := []*neo4j.Record{
		{Keys: []string{"name", "description"}, Values: []any{"A", "first"}},
		nil,
		{Keys: []string{"name", "description"}, Values: []any{"B"}},
	}

	out := convertRecords(records)
	require.Len(t, out, 2)
	assert.Equal(t, Record{"name": "A", "description": "first"}, out[0])
	assert.Equal(t, "B", out[1].String("name"))
	assert.Equal(t, "", out[1].String("description"))
}

func TestNeo4jConfigValidate(t *testing.T) {
	valid := Neo4jConfig{URI: "bolt://localhost:7687", Username: "neo4j", Password: "secret"}
	require.NoError(t, valid.Validate())

	missingURI := valid
	missingURI.URI = ""
	require.ErrorIs(t, missingURI.Validate(), ErrInvalidConfig)

	missingUser := valid
	missingUser.Username = ""
	require.ErrorIs(t, missingUser.Validate(), ErrInvalidConfig)

	missingPassword := valid
	missingPassword.Password = ""
	require.ErrorIs(t, missingPassword.Validate(), ErrInvalidConfig)

	_, err := NewNeo4jStore(missingURI, nil)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNeo4jStoreDriverFailure(t *testing.T) {
	store, err := NewNeo4jStore(Neo4jConfig{
		URI:      "bolt://localhost:7687",
		Username: "neo4j",
		Password: "secret",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	dialErr := errors.New("dial tcp: connection refused")
	store.newDriver = func(Neo4jConfig) (neo4j.DriverWithContext, error) {
		return nil, dialErr
	}

	ctx := context.Background()

	_, err = store.Run(ctx, "MATCH (n) RETURN n", nil)
	require.ErrorIs(t, err, ErrConnectionFailed)
	require.ErrorIs(t, err, dialErr)

	err = store.Write(ctx, "CREATE (n:Test)", nil)
	require.ErrorIs(t, err, ErrConnectionFailed)

	err = store.Ping(ctx)
	require.ErrorIs(t, err, ErrConnectionFailed)
}
