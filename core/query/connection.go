// Package query provides the fluent Query builder: it accumulates clauses
// over a single parameter bag, renders the final statement and hands it to a
// Connection for execution.
package query

import (
	"context"
	"errors"
	"iter"

	"github.com/asaidimu/go-cypher/core/clause"
)

// ErrNoConnection is returned by the terminal operations of a Query that was
// created without a Connection.
var ErrNoConnection = errors.New("cannot run query; no connection object available")

// Record is one result row keyed by the names in the RETURN clause.
type Record map[string]any

// Connection executes finished statements against a database.
type Connection interface {
	// Run executes the statement and returns every record.
	Run(ctx context.Context, q clause.QueryObject) ([]Record, error)
	// Stream executes the statement and yields records as they arrive.
	// Stopping the iteration releases the underlying resources.
	Stream(ctx context.Context, q clause.QueryObject) iter.Seq2[Record, error]
}
