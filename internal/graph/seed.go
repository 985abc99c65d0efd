package graph

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrInvalidSeed = errors.New("invalid seed data")

// DefaultNodeLabel is used for seed nodes that do not name a label.
const DefaultNodeLabel = "Entity"

// PolicySeed is a single policy statement stored as (:Policy {text}).
type PolicySeed struct {
	Text string `yaml:"text"`
}

// NodeSeed is a generic named node stored as (:<Label> {name, description}).
type NodeSeed struct {
	Label       string `yaml:"label"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// SeedData is the content of a seed file.
type SeedData struct {
	Policies []PolicySeed `yaml:"policies"`
	Nodes    []NodeSeed   `yaml:"nodes"`
}

// SeedResult reports how many items were written.
type SeedResult struct {
	Policies int
	Nodes    int
}

// LoadSeedFile reads and validates a YAML seed file.
func LoadSeedFile(path string) (SeedData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SeedData{}, fmt.Errorf("reading seed file: %w", err)
	}
	return ParseSeed(raw)
}

// ParseSeed decodes and validates YAML seed content.
func ParseSeed(raw []byte) (SeedData, error) {
	var data SeedData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return SeedData{}, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}
	for i := range data.Nodes {
		if data.Nodes[i].Label == "" {
			data.Nodes[i].Label = DefaultNodeLabel
		}
	}
	if err := data.Validate(); err != nil {
		return SeedData{}, err
	}
	return data, nil
}

// Validate checks that every item carries its required fields and that all
// labels are safe to interpolate.
func (d SeedData) Validate() error {
	for i, p := range d.Policies {
		if strings.TrimSpace(p.Text) == "" {
			return fmt.Errorf("%w: policy %d has empty text", ErrInvalidSeed, i)
		}
	}
	for i, n := range d.Nodes {
		if strings.TrimSpace(n.Name) == "" {
			return fmt.Errorf("%w: node %d has empty name", ErrInvalidSeed, i)
		}
		if err := ValidateIdentifier(n.Label); err != nil {
			return fmt.Errorf("%w: node %d: %w", ErrInvalidSeed, i, err)
		}
	}
	return nil
}

// Seed merges the seed data into the store. Merging on the identifying
// property makes repeated runs idempotent.
func Seed(ctx context.Context, w Writer, data SeedData) (SeedResult, error) {
	var res SeedResult
	if err := data.Validate(); err != nil {
		return res, err
	}

	for _, p := range data.Policies {
		err := w.Write(ctx, `MERGE (p:Policy {text: $text})`, map[string]any{"text": p.Text})
		if err != nil {
			return res, fmt.Errorf("seeding policy %q: %w", p.Text, err)
		}
		res.Policies++
	}

	for _, n := range data.Nodes {
		cypher := fmt.Sprintf("MERGE (n:`%s` {name: $name}) SET n.description = $description", n.Label)
		err := w.Write(ctx, cypher, map[string]any{
			"name":        n.Name,
			"description": n.Description,
		})
		if err != nil {
			return res, fmt.Errorf("seeding node %q: %w", n.Name, err)
		}
		res.Nodes++
	}

	return res, nil
}
