package query

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/asaidimu/go-cypher/core/clause"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) callback(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *eventRecorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *eventRecorder) waitFor(t *testing.T, n int) []Event {
	t.Helper()
	require.Eventually(t, func() bool { return len(r.snapshot()) >= n }, time.Second, 5*time.Millisecond)
	return r.snapshot()
}

func TestObservedConnection_Run(t *testing.T) {
	conn := &fakeConnection{records: []Record{{"n": 1}, {"n": 2}}}
	observed, err := NewObservedConnection(conn, nil)
	require.NoError(t, err)

	starts, successes := &eventRecorder{}, &eventRecorder{}
	observed.Subscribe(RunStart, starts.callback)
	observed.Subscribe(RunSuccess, successes.callback)

	records, err := New(observed).MatchNode("n", clause.Conditions(map[string]any{"id": 1})).Return("n").Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)

	start := starts.waitFor(t, 1)[0]
	success := successes.waitFor(t, 1)[0]

	assert.Equal(t, RunStart, start.Type)
	assert.Equal(t, "MATCH (n { id: $id })\nRETURN n;", start.Query)
	assert.Equal(t, start.ID, success.ID)
	assert.NotEmpty(t, success.ID)
	require.NotNil(t, success.Records)
	assert.Equal(t, 2, *success.Records)
	assert.NotNil(t, success.Duration)
	assert.Nil(t, success.Error)
}

func TestObservedConnection_RunFailure(t *testing.T) {
	boom := errors.New("boom")
	observed, err := NewObservedConnection(&fakeConnection{err: boom}, nil)
	require.NoError(t, err)

	failures := &eventRecorder{}
	observed.Subscribe(RunFailed, failures.callback)

	_, err = New(observed).Return("1").Run(context.Background())
	assert.ErrorIs(t, err, boom)

	failed := failures.waitFor(t, 1)[0]
	require.NotNil(t, failed.Error)
	assert.Equal(t, "boom", *failed.Error)
	assert.Nil(t, failed.Records)
}

func TestObservedConnection_Stream(t *testing.T) {
	conn := &fakeConnection{records: []Record{{"n": 1}, {"n": 2}, {"n": 3}}}
	observed, err := NewObservedConnection(conn, nil)
	require.NoError(t, err)

	successes := &eventRecorder{}
	observed.Subscribe(StreamSuccess, successes.callback)

	seq, err := New(observed).Return("1").Stream(context.Background())
	require.NoError(t, err)
	count := 0
	for _, err := range seq {
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 3, count)

	done := successes.waitFor(t, 1)[0]
	require.NotNil(t, done.Records)
	assert.Equal(t, 3, *done.Records)
}

func TestObservedConnection_Unsubscribe(t *testing.T) {
	observed, err := NewObservedConnection(&fakeConnection{}, nil)
	require.NoError(t, err)

	kept, dropped := &eventRecorder{}, &eventRecorder{}
	observed.Subscribe(RunSuccess, kept.callback)
	id := observed.Subscribe(RunSuccess, dropped.callback)
	observed.Unsubscribe(id)
	observed.Unsubscribe("unknown")

	_, err = New(observed).Return("1").Run(context.Background())
	require.NoError(t, err)

	kept.waitFor(t, 1)
	assert.Empty(t, dropped.snapshot())
}

func TestNewObservedConnection_RequiresConnection(t *testing.T) {
	_, err := NewObservedConnection(nil, nil)
	assert.ErrorIs(t, err, ErrNoConnection)
}
