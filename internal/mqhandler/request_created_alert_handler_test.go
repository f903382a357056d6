package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	contractsmq "reliefboard/contracts/mq"
)

type memDeduper map[string]bool

func (m memDeduper) AcquireOnce(_ context.Context, scope, key string) bool {
	k := scope + "|" + key
	if m[k] {
		return false
	}
	m[k] = true
	return true
}

type fakeLookup struct {
	exists bool
	err    error
}

func (f fakeLookup) Exists(context.Context, int64) (bool, error) { return f.exists, f.err }

func payload(t *testing.T, id int64, urgent bool) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(contractsmq.RequestCreatedPayload{
		RequestID: id,
		UserID:    3,
		IsUrgent:  urgent,
		Location:  "Bridge Rd",
		CreatedAt: time.Now(),
		TraceID:   "trace-9",
	})
	require.NoError(t, err)
	return raw
}

func alerts(logs *observer.ObservedLogs) int {
	return logs.FilterMessage("URGENT aid request").Len()
}

func TestAlertOnlyForUrgent(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := NewRequestCreatedAlertHandler(memDeduper{}, fakeLookup{exists: true}, zap.New(core))

	require.NoError(t, h.HandleRequestCreated(context.Background(), payload(t, 1, false)))
	assert.Equal(t, 0, alerts(logs))

	require.NoError(t, h.HandleRequestCreated(context.Background(), payload(t, 2, true)))
	require.Equal(t, 1, alerts(logs))

	entry := logs.FilterMessage("URGENT aid request").All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "trace-9", entry.ContextMap()["trace_id"])
	assert.Equal(t, "Bridge Rd", entry.ContextMap()["location"])
}

func TestAlertDeduplicated(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := NewRequestCreatedAlertHandler(memDeduper{}, nil, zap.New(core))

	for i := 0; i < 3; i++ {
		require.NoError(t, h.HandleRequestCreated(context.Background(), payload(t, 5, true)))
	}
	assert.Equal(t, 1, alerts(logs))
}

func TestAlertSkipsDeletedRequest(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := NewRequestCreatedAlertHandler(nil, fakeLookup{exists: false}, zap.New(core))

	require.NoError(t, h.HandleRequestCreated(context.Background(), payload(t, 5, true)))
	assert.Equal(t, 0, alerts(logs))
}

func TestAlertLookupError(t *testing.T) {
	h := NewRequestCreatedAlertHandler(nil, fakeLookup{err: errors.New("db down")}, zap.NewNop())
	assert.Error(t, h.HandleRequestCreated(context.Background(), payload(t, 5, true)))
}

func TestAlertBadPayload(t *testing.T) {
	h := NewRequestCreatedAlertHandler(nil, nil, zap.NewNop())
	assert.Error(t, h.HandleRequestCreated(context.Background(), json.RawMessage(`{"request_id":"x"`)))
}
