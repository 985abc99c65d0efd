package retrieval

import (
	"errors"
	"fmt"
	"strings"

	"github.com/michelleprabhu/bankchatbot/internal/graph"
)

// Mode selects how a query is translated into a graph lookup.
type Mode string

const (
	// ModePolicy matches a fixed label on one text property, case-sensitively.
	ModePolicy Mode = "policy"
	// ModeNode matches any node by name, case-insensitively, and formats
	// name/description pairs under a header.
	ModeNode Mode = "node"
)

const (
	// NoPoliciesFound is the single line returned in policy mode when nothing matches.
	NoPoliciesFound = "No relevant policies found."

	// NodeHeader prefixes the formatted lines in node mode.
	NodeHeader = "Relevant records from the knowledge graph:"

	// DefaultNodeLimit caps the number of matches used in node mode.
	DefaultNodeLimit = 5
)

var (
	ErrRetrievalFailed = errors.New("retrieval failed")
	ErrInvalidConfig   = errors.New("invalid retrieval configuration")
)

// Config controls query construction.
type Config struct {
	Mode Mode

	// Limit lowers the node-mode cap. Zero uses DefaultNodeLimit, which is
	// also the maximum.
	Limit int

	// Label and TextProperty describe the policy-mode node (default Policy.text).
	Label        string
	TextProperty string

	// NameProperty and DescriptionProperty describe node-mode projections.
	NameProperty        string
	DescriptionProperty string
}

// DefaultConfig returns the policy-mode configuration.
func DefaultConfig() Config {
	return Config{
		Mode:                ModePolicy,
		Limit:               DefaultNodeLimit,
		Label:               "Policy",
		TextProperty:        "text",
		NameProperty:        "name",
		DescriptionProperty: "description",
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Mode == "" {
		c.Mode = def.Mode
	}
	if c.Limit == 0 {
		c.Limit = def.Limit
	}
	if c.Label == "" {
		c.Label = def.Label
	}
	if c.TextProperty == "" {
		c.TextProperty = def.TextProperty
	}
	if c.NameProperty == "" {
		c.NameProperty = def.NameProperty
	}
	if c.DescriptionProperty == "" {
		c.DescriptionProperty = def.DescriptionProperty
	}
	return c
}

// Validate checks the mode, the limit and every identifier that ends up in query text.
func (c Config) Validate() error {
	switch c.Mode {
	case ModePolicy, ModeNode:
	default:
		return fmt.Errorf("%w: unknown mode %q (expected policy|node)", ErrInvalidConfig, c.Mode)
	}
	if c.Limit < 0 || c.Limit > DefaultNodeLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d, got %d", ErrInvalidConfig, DefaultNodeLimit, c.Limit)
	}
	for _, name := range []string{c.Label, c.TextProperty, c.NameProperty, c.DescriptionProperty} {
		if err := graph.ValidateIdentifier(name); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

// ContextBlock is the flattened text form of the matched records.
type ContextBlock struct {
	// Header is an optional first line; empty in policy mode.
	Header string `json:"header,omitempty"`

	// Lines holds one formatted entry per matched record, in store order.
	Lines []string `json:"lines"`
}

// String joins the header and lines with newlines.
func (b ContextBlock) String() string {
	if b.Header == "" {
		return strings.Join(b.Lines, "\n")
	}
	parts := make([]string, 0, len(b.Lines)+1)
	parts = append(parts, b.Header)
	parts = append(parts, b.Lines...)
	return strings.Join(parts, "\n")
}
