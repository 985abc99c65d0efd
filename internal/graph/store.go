package graph

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Common errors for graph store operations
var (
	ErrQueryFailed      = errors.New("graph query failed")
	ErrConnectionFailed = errors.New("failed to connect to graph store")
	ErrInvalidConfig    = errors.New("invalid graph store configuration")
	ErrInvalidName      = errors.New("invalid cypher identifier")
)

// Record is a single row returned by a store query, keyed by projected field name.
type Record map[string]any

// String returns the named field as a string, or "" when it is missing or not text.
func (r Record) String(key string) string {
	val, ok := r[key]
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return fmt.Sprint(val)
}

// Store defines the read side of the graph database used for retrieval.
type Store interface {
	// Run executes one read-only parameterized query and returns all records
	// in the order the store produced them.
	Run(ctx context.Context, cypher string, params map[string]any) ([]Record, error)
}

// Writer executes write queries. Only the seeding path uses it.
type Writer interface {
	Write(ctx context.Context, cypher string, params map[string]any) error
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateIdentifier reports whether name can be used as a label or property
// name in a Cypher query. Labels and property keys cannot be bound as
// parameters, so everything interpolated into query text must pass this check.
func ValidateIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
