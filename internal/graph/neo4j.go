package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Neo4jConfig holds connection settings for a Neo4j store.
type Neo4jConfig struct {
	URI      string // e.g. "neo4j+s://xxxx.databases.neo4j.io" or "bolt://localhost:7687"
	Username string
	Password string
	Database string // empty selects the server default database
}

// Validate checks that the connection settings are complete.
func (c Neo4jConfig) Validate() error {
	if c.URI == "" {
		return fmt.Errorf("%w: missing URI", ErrInvalidConfig)
	}
	if c.Username == "" {
		return fmt.Errorf("%w: missing username", ErrInvalidConfig)
	}
	if c.Password == "" {
		return fmt.Errorf("%w: missing password", ErrInvalidConfig)
	}
	return nil
}

// Neo4jStore implements Store and Writer on top of the Neo4j Go driver.
//
// Every call opens its own driver and session and closes both before
// returning. Nothing is pooled or shared between calls.
type Neo4jStore struct {
	config    Neo4jConfig
	logger    *zap.Logger
	newDriver func(cfg Neo4jConfig) (neo4j.DriverWithContext, error)
}

// NewNeo4jStore creates a store for the given connection settings. No
// connection is made until the first query.
func NewNeo4jStore(config Neo4jConfig, logger *zap.Logger) (*Neo4jStore, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Neo4jStore{
		config:    config,
		logger:    logger,
		newDriver: openDriver,
	}, nil
}

func openDriver(cfg Neo4jConfig) (neo4j.DriverWithContext, error) {
	return neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
}

// Run executes a read query in a fresh read-mode session.
func (s *Neo4jStore) Run(ctx context.Context, cypher string, params map[string]any) ([]Record, error) {
	var out []Record
	err := s.withSession(ctx, neo4j.AccessModeRead, func(session neo4j.SessionWithContext) error {
		result, err := session.Run(ctx, cypher, params)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrQueryFailed, err)
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return fmt.Errorf("%w: collecting records: %w", ErrQueryFailed, err)
		}
		out = convertRecords(records)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("graph query complete", zap.Int("records", len(out)))
	return out, nil
}

// Write executes a write query in a fresh write-mode session.
func (s *Neo4jStore) Write(ctx context.Context, cypher string, params map[string]any) error {
	return s.withSession(ctx, neo4j.AccessModeWrite, func(session neo4j.SessionWithContext) error {
		result, err := session.Run(ctx, cypher, params)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrQueryFailed, err)
		}
		if _, err := result.Consume(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrQueryFailed, err)
		}
		return nil
	})
}

// Ping verifies that the server is reachable with the configured credentials.
func (s *Neo4jStore) Ping(ctx context.Context) error {
	driver, err := s.newDriver(s.config)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer driver.Close(ctx)

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return nil
}

func (s *Neo4jStore) withSession(ctx context.Context, mode neo4j.AccessMode, fn func(neo4j.SessionWithContext) error) error {
	driver, err := s.newDriver(s.config)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer func() {
		if cerr := driver.Close(ctx); cerr != nil {
			s.logger.Warn("closing neo4j driver", zap.Error(cerr))
		}
	}()

	session := driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: s.config.Database,
	})
	defer func() {
		if cerr := session.Close(ctx); cerr != nil {
			s.logger.Warn("closing neo4j session", zap.Error(cerr))
		}
	}()

	return fn(session)
}

func convertRecords(records []*neo4j.Record) []Record {
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		row := make(Record, len(rec.Keys))
		for i, key := range rec.Keys {
			if i < len(rec.Values) {
				row[key] = rec.Values[i]
			}
		}
		out = append(out, row)
	}
	return out
}
