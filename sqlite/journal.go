// Package sqlite keeps a journal of executed Cypher statements in a SQLite
// database. The Journal wraps another query.Connection, forwards every
// statement to it and records what ran, how long it took and how it ended.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/asaidimu/go-cypher/core/clause"
	"github.com/asaidimu/go-cypher/core/query"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/zeebo/xxh3"
	"go.uber.org/zap"
)

// Execution modes stored with each entry.
const (
	ModeRun    = "run"
	ModeStream = "stream"
)

// JournalOptions configures a Journal.
type JournalOptions struct {
	Table         string // Table holding the entries.
	IfNotExists   bool   // Tolerate an existing table.
	OmitParams    bool   // Do not persist parameter values.
	CreateIndexes bool   // Index the fingerprint and start time columns.
}

// DefaultJournalOptions returns the options used when none are given.
func DefaultJournalOptions() *JournalOptions {
	return &JournalOptions{
		Table:         "cypher_journal",
		IfNotExists:   true,
		CreateIndexes: true,
	}
}

// Entry is one journaled execution.
type Entry struct {
	ID          string         `json:"id"`
	Fingerprint string         `json:"fingerprint"`
	Mode        string         `json:"mode"`
	Query       string         `json:"query"`
	Params      map[string]any `json:"params,omitempty"`
	StartedAt   time.Time      `json:"startedAt"`
	Duration    time.Duration  `json:"duration"`
	Records     int            `json:"records"`
	Error       string         `json:"error,omitempty"`
}

// dbRunner is satisfied by both *sql.DB and *sql.Tx.
type dbRunner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Journal is a query.Connection that records every statement it forwards.
type Journal struct {
	db      dbRunner
	next    query.Connection
	logger  *zap.Logger
	options *JournalOptions
	now     func() time.Time
}

var _ query.Connection = (*Journal)(nil)

// NewJournal creates the journal table if needed and returns a Journal that
// forwards to next. next may be nil for a journal that is only read.
func NewJournal(ctx context.Context, db *sql.DB, next query.Connection, logger *zap.Logger, options *JournalOptions) (*Journal, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if options == nil {
		options = DefaultJournalOptions()
	}
	if options.Table == "" {
		options.Table = DefaultJournalOptions().Table
	}
	j := &Journal{db: db, next: next, logger: logger, options: options, now: time.Now}
	if err := j.migrate(ctx); err != nil {
		return nil, err
	}
	return j, nil
}

// Open opens (or creates) a SQLite database file and returns a Journal over
// it along with the database handle, which the caller closes.
func Open(ctx context.Context, path string, next query.Connection, logger *zap.Logger, options *JournalOptions) (*Journal, *sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal database: %w", err)
	}
	j, err := NewJournal(ctx, db, next, logger, options)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return j, db, nil
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (j *Journal) table() string {
	return quoteIdentifier(j.options.Table)
}

func (j *Journal) migrate(ctx context.Context) error {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	if j.options.IfNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(j.table())
	sb.WriteString(` (
	id TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	mode TEXT NOT NULL,
	query TEXT NOT NULL,
	params TEXT,
	started_at INTEGER NOT NULL,
	duration_ns INTEGER NOT NULL,
	records INTEGER NOT NULL,
	error TEXT
)`)
	statements := []string{sb.String()}
	if j.options.CreateIndexes {
		for _, col := range []string{"fingerprint", "started_at"} {
			statements = append(statements, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
				quoteIdentifier(j.options.Table+"_"+col), j.table(), col))
		}
	}
	for _, stmt := range statements {
		j.logger.Debug("Executing journal DDL", zap.String("sql", stmt))
		if _, err := j.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create journal table: %w", err)
		}
	}
	return nil
}

// Fingerprint identifies the shape of a statement. Statements that differ
// only in parameter values share a fingerprint.
func Fingerprint(statement string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(statement))
}

// Run forwards q and journals the outcome.
func (j *Journal) Run(ctx context.Context, q clause.QueryObject) ([]query.Record, error) {
	if j.next == nil {
		return nil, query.ErrNoConnection
	}
	start := j.now()
	records, err := j.next.Run(ctx, q)
	j.record(ctx, ModeRun, q, start, len(records), err)
	return records, err
}

// Stream forwards q and journals the outcome once the sequence ends or the
// caller stops iterating.
func (j *Journal) Stream(ctx context.Context, q clause.QueryObject) iter.Seq2[query.Record, error] {
	return func(yield func(query.Record, error) bool) {
		if j.next == nil {
			yield(nil, query.ErrNoConnection)
			return
		}
		start := j.now()
		count := 0
		var streamErr error
		defer func() {
			j.record(ctx, ModeStream, q, start, count, streamErr)
		}()
		for record, err := range j.next.Stream(ctx, q) {
			if err != nil {
				streamErr = err
				yield(nil, err)
				return
			}
			count++
			if !yield(record, nil) {
				return
			}
		}
	}
}

// record writes one entry. Journal failures are logged, never returned: the
// statement itself already ran.
func (j *Journal) record(ctx context.Context, mode string, q clause.QueryObject, start time.Time, records int, runErr error) {
	var params sql.NullString
	if !j.options.OmitParams && len(q.Params) > 0 {
		data, err := json.Marshal(q.Params)
		if err != nil {
			j.logger.Warn("Failed to encode journal params", zap.Error(err))
		} else {
			params = sql.NullString{String: string(data), Valid: true}
		}
	}
	var errText sql.NullString
	if runErr != nil {
		errText = sql.NullString{String: runErr.Error(), Valid: true}
	}

	stmt := "INSERT INTO " + j.table() +
		" (id, fingerprint, mode, query, params, started_at, duration_ns, records, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := j.db.ExecContext(context.WithoutCancel(ctx), stmt,
		uuid.New().String(),
		Fingerprint(q.Query),
		mode,
		q.Query,
		params,
		start.UnixNano(),
		j.now().Sub(start).Nanoseconds(),
		records,
		errText,
	)
	if err != nil {
		j.logger.Error("Failed to write journal entry", zap.Error(err), zap.String("cypher", q.Query))
	}
}

// EntryFilter narrows Entries.
type EntryFilter struct {
	Limit       int    // Zero returns every entry.
	Fingerprint string // Only entries with this fingerprint.
	FailedOnly  bool   // Only entries that ended with an error.
}

// Entries returns journaled executions, newest first.
func (j *Journal) Entries(ctx context.Context, filter EntryFilter) ([]Entry, error) {
	var where []string
	var args []any
	if filter.Fingerprint != "" {
		where = append(where, "fingerprint = ?")
		args = append(args, filter.Fingerprint)
	}
	if filter.FailedOnly {
		where = append(where, "error IS NOT NULL")
	}

	stmt := "SELECT id, fingerprint, mode, query, params, started_at, duration_ns, records, error FROM " + j.table()
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY started_at DESC, rowid DESC"
	if filter.Limit > 0 {
		stmt += " LIMIT " + strconv.Itoa(filter.Limit)
	}

	j.logger.Debug("Reading journal", zap.String("sql", stmt), zap.Any("params", args))
	rows, err := j.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		j.logger.Error("Failed to read journal", zap.Error(err), zap.String("sql", stmt))
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			params     sql.NullString
			errText    sql.NullString
			startedAt  int64
			durationNs int64
		)
		if err := rows.Scan(&e.ID, &e.Fingerprint, &e.Mode, &e.Query, &params, &startedAt, &durationNs, &e.Records, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		if params.Valid {
			if err := json.Unmarshal([]byte(params.String), &e.Params); err != nil {
				j.logger.Warn("Journal entry has unreadable params", zap.String("id", e.ID), zap.Error(err))
			}
		}
		e.StartedAt = time.Unix(0, startedAt).UTC()
		e.Duration = time.Duration(durationNs)
		e.Error = errText.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning journal: %w", err)
	}
	return entries, nil
}

// Stat aggregates the executions of one statement shape.
type Stat struct {
	Fingerprint string        `json:"fingerprint"`
	Query       string        `json:"query"`
	Executions  int           `json:"executions"`
	Failures    int           `json:"failures"`
	AvgDuration time.Duration `json:"avgDuration"`
}

// Stats groups the journal by fingerprint, most executed first.
func (j *Journal) Stats(ctx context.Context) ([]Stat, error) {
	stmt := "SELECT fingerprint, MAX(query), COUNT(*), COUNT(error), CAST(AVG(duration_ns) AS INTEGER) FROM " +
		j.table() + " GROUP BY fingerprint ORDER BY COUNT(*) DESC, fingerprint"
	rows, err := j.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate journal: %w", err)
	}
	defer rows.Close()

	var stats []Stat
	for rows.Next() {
		var s Stat
		var avg int64
		if err := rows.Scan(&s.Fingerprint, &s.Query, &s.Executions, &s.Failures, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan journal stat: %w", err)
		}
		s.AvgDuration = time.Duration(avg)
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning journal stats: %w", err)
	}
	return stats, nil
}
