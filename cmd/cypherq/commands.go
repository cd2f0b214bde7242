package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/asaidimu/go-cypher/core/clause"
	"github.com/asaidimu/go-cypher/core/query"
	"github.com/asaidimu/go-cypher/neo4j"
	"github.com/asaidimu/go-cypher/sqlite"
	"github.com/asaidimu/go-cypher/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func loadOptions(cmd *cobra.Command) (*neo4j.Options, error) {
	opts := neo4j.DefaultOptions()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := neo4j.LoadOptions(path)
		if err != nil {
			return nil, err
		}
		opts = loaded
	}
	opts.ApplyEnv()

	for flag, target := range map[string]*string{
		"uri":      &opts.URI,
		"user":     &opts.Username,
		"password": &opts.Password,
		"database": &opts.Database,
	} {
		if v, _ := cmd.Flags().GetString(flag); v != "" {
			*target = v
		}
	}
	return opts, opts.Validate()
}

// session holds the connection stack for one command: Neo4j, optionally
// wrapped by the journal, wrapped by the event observer.
type session struct {
	conn    query.Connection
	logger  *zap.Logger
	cleanup []func()
}

func (s *session) close() {
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		s.cleanup[i]()
	}
	_ = s.logger.Sync()
}

func openSession(ctx context.Context, cmd *cobra.Command) (*session, error) {
	logger, err := newLogger(cmd)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	s := &session{logger: logger}

	opts, err := loadOptions(cmd)
	if err != nil {
		return nil, err
	}
	db, err := neo4j.Connect(ctx, opts, logger)
	if err != nil {
		return nil, err
	}
	s.cleanup = append(s.cleanup, func() { _ = db.Close(context.Background()) })
	var conn query.Connection = db

	if path, _ := cmd.Flags().GetString("journal"); path != "" {
		journal, sqlDB, err := sqlite.Open(ctx, path, conn, logger, nil)
		if err != nil {
			s.close()
			return nil, err
		}
		s.cleanup = append(s.cleanup, func() { _ = sqlDB.Close() })
		conn = journal
	}

	observed, err := query.NewObservedConnection(conn, logger)
	if err != nil {
		s.close()
		return nil, err
	}
	for _, event := range []query.EventType{query.RunSuccess, query.RunFailed, query.StreamSuccess, query.StreamFailed} {
		observed.Subscribe(event, func(_ context.Context, e query.Event) error {
			fields := []zap.Field{zap.String("id", e.ID), zap.String("event", string(e.Type))}
			if e.Duration != nil {
				fields = append(fields, zap.Int64("durationMs", *e.Duration))
			}
			if e.Records != nil {
				fields = append(fields, zap.Int("records", *e.Records))
			}
			if e.Error != nil {
				fields = append(fields, zap.String("error", *e.Error))
			}
			logger.Debug("Statement finished", fields...)
			return nil
		})
	}
	s.conn = observed
	return s, nil
}

// parseAssignments turns name=value pairs into a map. Values are decoded as
// JSON when possible and kept as strings otherwise; whole numbers become
// int64.
func parseAssignments(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("expected name=value, got %q", pair)
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			out[name] = raw
			continue
		}
		out[name] = utils.NormalizeNumbers(value)
	}
	return out, nil
}

func execute(cmd *cobra.Command, build func(conn query.Connection) *query.Query) error {
	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		text, err := build(nil).Interpolate()
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	}

	ctx := cmd.Context()
	s, err := openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	seq, err := build(s.conn).Stream(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	for record, err := range seq {
		if err != nil {
			return err
		}
		if err := enc.Encode(record); err != nil {
			return err
		}
	}
	return nil
}

func runRaw(cmd *cobra.Command, args []string) error {
	pairs, _ := cmd.Flags().GetStringArray("param")
	values, err := parseAssignments(pairs)
	if err != nil {
		return err
	}
	return execute(cmd, func(conn query.Connection) *query.Query {
		return query.New(conn).Raw(args[0], values)
	})
}

func runMatch(cmd *cobra.Command, args []string) error {
	variable, _ := cmd.Flags().GetString("var")
	wherePairs, _ := cmd.Flags().GetStringArray("where")
	returns, _ := cmd.Flags().GetStringArray("return")
	orderBy, _ := cmd.Flags().GetString("order-by")
	desc, _ := cmd.Flags().GetBool("desc")
	skip, _ := cmd.Flags().GetInt("skip")
	limit, _ := cmd.Flags().GetInt("limit")

	conditions, err := parseAssignments(wherePairs)
	if err != nil {
		return err
	}

	return execute(cmd, func(conn query.Connection) *query.Query {
		q := query.New(conn).MatchNode(variable, clause.Labels(args[0]))
		if len(conditions) > 0 {
			q.Where(map[string]any{variable: conditions})
		}
		terms := []any{variable}
		if len(returns) > 0 {
			terms = terms[:0]
			for _, r := range returns {
				terms = append(terms, r)
			}
		}
		q.Return(terms...)
		if orderBy != "" {
			field := variable + "." + orderBy
			if desc {
				q.OrderBy(clause.Desc(field))
			} else {
				q.OrderBy(clause.Asc(field))
			}
		}
		if skip > 0 {
			q.Skip(skip)
		}
		if limit > 0 {
			q.Limit(limit)
		}
		return q
	})
}

func runJournal(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("journal")
	if path == "" {
		return errors.New("journal: --journal is required")
	}
	limit, _ := cmd.Flags().GetInt("limit")
	failed, _ := cmd.Flags().GetBool("failed")
	fingerprint, _ := cmd.Flags().GetString("fingerprint")
	stats, _ := cmd.Flags().GetBool("stats")

	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()
	journal, db, err := sqlite.Open(ctx, path, nil, logger, nil)
	if err != nil {
		return err
	}
	defer db.Close()

	enc := json.NewEncoder(os.Stdout)
	if stats {
		rows, err := journal.Stats(ctx)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if err := enc.Encode(row); err != nil {
				return err
			}
		}
		return nil
	}

	entries, err := journal.Entries(ctx, sqlite.EntryFilter{Limit: limit, Fingerprint: fingerprint, FailedOnly: failed})
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	return nil
}
