package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"reliefboard/pkg/trace"
)

type memStore struct {
	events map[int64]*Event
	failed map[int64]int
}

func newMemStore(events ...*Event) *memStore {
	s := &memStore{events: map[int64]*Event{}, failed: map[int64]int{}}
	for _, e := range events {
		s.events[e.ID] = e
	}
	return s
}

func (s *memStore) GetPendingEvents(_ context.Context, limit int) ([]*Event, error) {
	var out []*Event
	for id := int64(1); id <= int64(len(s.events)) && len(out) < limit; id++ {
		if e, ok := s.events[id]; ok && e.Status == StatusPending {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memStore) GetEventByID(_ context.Context, id int64) (*Event, error) {
	e, ok := s.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	return e, nil
}

func (s *memStore) GetFailedEvents(_ context.Context, limit int) ([]*Event, error) {
	var out []*Event
	for _, e := range s.events {
		if e.Status == StatusFailed && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memStore) MarkAsSent(_ context.Context, id int64) error {
	s.events[id].Status = StatusSent
	return nil
}

func (s *memStore) MarkAsFailed(_ context.Context, id int64, maxRetries int) error {
	s.failed[id]++
	e := s.events[id]
	e.RetryCount++
	e.Status, e.NextRetryAt = nextAttempt(e.RetryCount, maxRetries, time.Now())
	return nil
}

type published struct {
	routingKey string
	body       string
	traceID    string
}

type fakePublisher struct {
	err  error
	sent []published
}

func (p *fakePublisher) PublishWithContext(ctx context.Context, routingKey string, payload any) error {
	if p.err != nil {
		return p.err
	}
	body, _ := json.Marshal(payload)
	p.sent = append(p.sent, published{routingKey, string(body), trace.FromContext(ctx)})
	return nil
}

func pendingEvent(id int64, payload string) *Event {
	return &Event{ID: id, RoutingKey: "request.created", Payload: json.RawMessage(payload), Status: StatusPending}
}

func TestDispatcherPublishesPendingEvents(t *testing.T) {
	store := newMemStore(
		pendingEvent(1, `{"request_id":1,"trace_id":"abc"}`),
		pendingEvent(2, `{"request_id":2}`),
	)
	pub := &fakePublisher{}

	sent := NewDispatcher(store, pub, zap.NewNop()).ProcessPending(context.Background())

	require.Equal(t, 2, sent)
	require.Len(t, pub.sent, 2)
	assert.Equal(t, `{"request_id":1,"trace_id":"abc"}`, pub.sent[0].body)
	assert.Equal(t, "abc", pub.sent[0].traceID)
	assert.Equal(t, "", pub.sent[1].traceID)
	assert.Equal(t, StatusSent, store.events[1].Status)
	assert.Equal(t, StatusSent, store.events[2].Status)
}

func TestDispatcherMarksFailuresAndGivesUp(t *testing.T) {
	store := newMemStore(pendingEvent(1, `{}`))
	pub := &fakePublisher{err: errors.New("channel closed")}
	d := NewDispatcher(store, pub, zap.NewNop()).WithMaxRetries(2)

	assert.Equal(t, 0, d.ProcessPending(context.Background()))
	assert.Equal(t, StatusPending, store.events[1].Status)
	require.NotNil(t, store.events[1].NextRetryAt)

	d.ProcessPending(context.Background())
	assert.Equal(t, StatusFailed, store.events[1].Status)
	assert.Nil(t, store.events[1].NextRetryAt)
	assert.Equal(t, 2, store.failed[1])
}

func TestReplayFailedEvents(t *testing.T) {
	e := pendingEvent(1, `{"request_id":7}`)
	e.Status = StatusFailed
	store := newMemStore(e)
	pub := &fakePublisher{}

	n, err := NewReplayService(store, pub, zap.NewNop()).ReplayFailedEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, StatusSent, store.events[1].Status)
}

func TestReplayUnknownEvent(t *testing.T) {
	err := NewReplayService(newMemStore(), &fakePublisher{}, zap.NewNop()).ReplayEvent(context.Background(), 42)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestNextAttemptBacksOff(t *testing.T) {
	now := time.Unix(1000, 0)

	status, next := nextAttempt(2, 5, now)
	assert.Equal(t, StatusPending, status)
	assert.Equal(t, now.Add(10*time.Second), *next)

	status, next = nextAttempt(5, 5, now)
	assert.Equal(t, StatusFailed, status)
	assert.Nil(t, next)
}
