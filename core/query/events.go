package query

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/asaidimu/go-cypher/core/clause"
	"github.com/asaidimu/go-events"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventType names an execution event.
type EventType string

const (
	RunStart      EventType = "query:run:start"
	RunSuccess    EventType = "query:run:success"
	RunFailed     EventType = "query:run:failed"
	StreamStart   EventType = "query:stream:start"
	StreamSuccess EventType = "query:stream:success"
	StreamFailed  EventType = "query:stream:failed"
)

// Event describes one step of a statement execution. Start and end events of
// the same execution share an ID. Timestamp is in Unix milliseconds. Duration
// (milliseconds) is set on success and failure events, Records on success and
// Error on failure.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp int64          `json:"timestamp"`
	Query     string         `json:"query"`
	Params    map[string]any `json:"params,omitempty"`
	Records   *int           `json:"records,omitempty"`
	Error     *string        `json:"error,omitempty"`
	Duration  *int64         `json:"duration,omitempty"`
}

// EventCallback receives events for a subscription.
type EventCallback func(ctx context.Context, event Event) error

// ObservedConnection wraps a Connection and emits an Event before and after
// every execution.
type ObservedConnection struct {
	conn          Connection
	bus           *events.TypedEventBus[Event]
	logger        *zap.Logger
	subMu         sync.Mutex
	subscriptions map[string]func()
}

var _ Connection = (*ObservedConnection)(nil)

// NewObservedConnection wraps conn.
func NewObservedConnection(conn Connection, logger *zap.Logger) (*ObservedConnection, error) {
	if conn == nil {
		return nil, ErrNoConnection
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	bus, err := events.NewTypedEventBus[Event](events.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("create event bus: %w", err)
	}
	return &ObservedConnection{
		conn:          conn,
		bus:           bus,
		logger:        logger,
		subscriptions: make(map[string]func()),
	}, nil
}

// Subscribe registers callback for events of the given type and returns an id
// for Unsubscribe.
func (o *ObservedConnection) Subscribe(event EventType, callback EventCallback) string {
	o.subMu.Lock()
	defer o.subMu.Unlock()
	unsubscribe := o.bus.Subscribe(string(event), func(ctx context.Context, e Event) error {
		return callback(ctx, e)
	})
	id := uuid.New().String()
	o.subscriptions[id] = unsubscribe
	return id
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (o *ObservedConnection) Unsubscribe(id string) {
	o.subMu.Lock()
	defer o.subMu.Unlock()
	if unsubscribe, ok := o.subscriptions[id]; ok {
		unsubscribe()
		delete(o.subscriptions, id)
	}
}

func (o *ObservedConnection) emit(e Event) {
	e.Timestamp = time.Now().UnixMilli()
	o.bus.Emit(string(e.Type), e)
}

func newEvent(id string, t EventType, q clause.QueryObject, start time.Time, records int, err error) Event {
	e := Event{ID: id, Type: t, Query: q.Query, Params: q.Params}
	if start.IsZero() {
		return e
	}
	d := time.Since(start).Milliseconds()
	e.Duration = &d
	if err != nil {
		msg := err.Error()
		e.Error = &msg
		return e
	}
	e.Records = &records
	return e
}

// Run executes q on the wrapped connection.
func (o *ObservedConnection) Run(ctx context.Context, q clause.QueryObject) ([]Record, error) {
	id := uuid.New().String()
	o.emit(newEvent(id, RunStart, q, time.Time{}, 0, nil))

	start := time.Now()
	records, err := o.conn.Run(ctx, q)
	if err != nil {
		o.logger.Debug("Observed run failed", zap.String("id", id), zap.Error(err))
		o.emit(newEvent(id, RunFailed, q, start, 0, err))
		return nil, err
	}
	o.emit(newEvent(id, RunSuccess, q, start, len(records), nil))
	return records, nil
}

// Stream executes q on the wrapped connection. The success event fires once
// the sequence is exhausted; stopping early emits nothing further.
func (o *ObservedConnection) Stream(ctx context.Context, q clause.QueryObject) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		id := uuid.New().String()
		o.emit(newEvent(id, StreamStart, q, time.Time{}, 0, nil))

		start := time.Now()
		count := 0
		for record, err := range o.conn.Stream(ctx, q) {
			if err != nil {
				o.emit(newEvent(id, StreamFailed, q, start, count, err))
				yield(nil, err)
				return
			}
			count++
			if !yield(record, nil) {
				return
			}
		}
		o.emit(newEvent(id, StreamSuccess, q, start, count, nil))
	}
}
