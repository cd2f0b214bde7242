// Package neo4j runs statements built by the query package on a Neo4j server
// over Bolt.
package neo4j

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/asaidimu/go-cypher/core/clause"
	"github.com/asaidimu/go-cypher/core/query"
	driver "github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// ErrInvalidOptions is returned for options a driver cannot be built from.
var ErrInvalidOptions = errors.New("invalid neo4j options")

// Connection implements query.Connection on top of a Neo4j driver. Every
// statement runs in its own session.
type Connection struct {
	driver  driver.DriverWithContext
	options *Options
	logger  *zap.Logger
	owned   bool
}

var _ query.Connection = (*Connection)(nil)

// Connect creates a driver from opts, verifies that the server is reachable
// and returns a Connection that closes the driver on Close.
func Connect(ctx context.Context, opts *Options, logger *zap.Logger) (*Connection, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	d, err := driver.NewDriverWithContext(
		opts.URI,
		driver.BasicAuth(opts.Username, opts.Password, opts.Realm),
		func(c *driver.Config) {
			if opts.MaxConnectionPoolSize > 0 {
				c.MaxConnectionPoolSize = opts.MaxConnectionPoolSize
			}
			if opts.ConnectionAcquisitionTimeout > 0 {
				c.ConnectionAcquisitionTimeout = opts.ConnectionAcquisitionTimeout
			}
			if opts.SocketConnectTimeout > 0 {
				c.SocketConnectTimeout = opts.SocketConnectTimeout
			}
			if opts.MaxConnectionLifetime > 0 {
				c.MaxConnectionLifetime = opts.MaxConnectionLifetime
			}
		},
	)
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := d.VerifyConnectivity(ctx); err != nil {
		_ = d.Close(ctx)
		return nil, fmt.Errorf("connect to %s: %w", opts.URI, err)
	}

	c := NewConnection(d, opts, logger)
	c.owned = true
	return c, nil
}

// NewConnection wraps an existing driver. The caller keeps ownership of d.
func NewConnection(d driver.DriverWithContext, opts *Options, logger *zap.Logger) *Connection {
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connection{driver: d, options: opts, logger: logger}
}

// Query starts a new statement bound to this connection.
func (c *Connection) Query(opts ...query.Option) *query.Query {
	return query.New(c, append([]query.Option{query.WithLogger(c.logger)}, opts...)...)
}

// Close releases the driver when the connection created it.
func (c *Connection) Close(ctx context.Context) error {
	if !c.owned {
		return nil
	}
	return c.driver.Close(ctx)
}

func (c *Connection) session(ctx context.Context) driver.SessionWithContext {
	mode := driver.AccessModeWrite
	if c.options.AccessMode == AccessRead {
		mode = driver.AccessModeRead
	}
	return c.driver.NewSession(ctx, driver.SessionConfig{
		AccessMode:   mode,
		DatabaseName: c.options.Database,
	})
}

// Run executes q and collects every record.
func (c *Connection) Run(ctx context.Context, q clause.QueryObject) ([]query.Record, error) {
	session := c.session(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, q.Query, q.Params)
	if err != nil {
		c.logger.Error("Failed to run cypher statement", zap.Error(err), zap.String("cypher", q.Query))
		return nil, fmt.Errorf("run statement: %w", err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		c.logger.Error("Failed to collect cypher results", zap.Error(err), zap.String("cypher", q.Query))
		return nil, fmt.Errorf("collect results: %w", err)
	}

	out := make([]query.Record, len(records))
	for i, r := range records {
		out[i] = toRecord(r.Keys, r.Values)
	}
	return out, nil
}

// Stream executes q when iteration starts and yields records as the server
// sends them. The session is closed when the sequence ends or the caller
// stops iterating.
func (c *Connection) Stream(ctx context.Context, q clause.QueryObject) iter.Seq2[query.Record, error] {
	return func(yield func(query.Record, error) bool) {
		session := c.session(ctx)
		defer session.Close(ctx)

		result, err := session.Run(ctx, q.Query, q.Params)
		if err != nil {
			c.logger.Error("Failed to stream cypher statement", zap.Error(err), zap.String("cypher", q.Query))
			yield(nil, fmt.Errorf("run statement: %w", err))
			return
		}
		for result.Next(ctx) {
			r := result.Record()
			if !yield(toRecord(r.Keys, r.Values), nil) {
				return
			}
		}
		if err := result.Err(); err != nil {
			yield(nil, fmt.Errorf("stream results: %w", err))
		}
	}
}
