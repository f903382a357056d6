package request

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"reliefboard/internal/model"
	"reliefboard/internal/repository"
	"reliefboard/internal/service"
	"reliefboard/pkg/rbac"
	"reliefboard/pkg/trace"
)

type memStore struct {
	rows      map[int64]model.AidRequest
	nextID    int64
	traceIDs  []string
	feedLimit int
	createErr error
}

func newMemStore() *memStore { return &memStore{rows: map[int64]model.AidRequest{}} }

func (m *memStore) Create(_ context.Context, req *model.AidRequest, traceID string) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	req.ID = m.nextID
	req.CreatedAt = time.Now()
	m.rows[req.ID] = *req
	m.traceIDs = append(m.traceIDs, traceID)
	return nil
}

func (m *memStore) Feed(_ context.Context, limit, _ int) ([]model.AidRequest, error) {
	m.feedLimit = limit
	return nil, nil
}

func (m *memStore) ListByUser(_ context.Context, userID int64) ([]model.AidRequest, error) {
	var out []model.AidRequest
	for _, r := range m.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) FindByID(_ context.Context, id int64) (*model.AidRequest, error) {
	r, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (m *memStore) Delete(_ context.Context, id, _ int64, _ string) error {
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type fixedClassifier struct {
	urgent bool
	seen   []string
}

func (f *fixedClassifier) Classify(_ context.Context, d string) bool {
	f.seen = append(f.seen, d)
	return f.urgent
}

type memDeduper map[string]bool

func (m memDeduper) AcquireOnce(_ context.Context, scope, key string) bool {
	k := scope + "|" + key
	if m[k] {
		return false
	}
	m[k] = true
	return true
}

func (m memDeduper) Release(_ context.Context, scope, key string) {
	delete(m, scope+"|"+key)
}

func validInput() SubmitInput {
	return SubmitInput{
		UserID:      1,
		Description: "Water is rising fast in our street",
		Location:    "Elm Street 4",
		PhoneNumber: "+1 (555) 123-4567",
	}
}

func TestSubmitStoresClassifierVerdict(t *testing.T) {
	for _, urgent := range []bool{true, false} {
		store := newMemStore()
		cls := &fixedClassifier{urgent: urgent}
		s := NewService(store, cls, nil, zap.NewNop())

		ctx := trace.WithContext(context.Background(), "trace-1")
		req, err := s.Submit(ctx, validInput())
		require.NoError(t, err)

		assert.Equal(t, urgent, req.IsUrgent)
		assert.Equal(t, urgent, store.rows[req.ID].IsUrgent)
		assert.Equal(t, []string{"Water is rising fast in our street"}, cls.seen)
		assert.Equal(t, []string{"trace-1"}, store.traceIDs)
	}
}

func TestSubmitValidation(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*SubmitInput)
		field string
	}{
		{"short description", func(in *SubmitInput) { in.Description = "help me" }, "description"},
		{"long description", func(in *SubmitInput) { in.Description = strings.Repeat("a", 501) }, "description"},
		{"padded short description", func(in *SubmitInput) { in.Description = "   short    " }, "description"},
		{"short location", func(in *SubmitInput) { in.Location = "A1" }, "location"},
		{"short phone", func(in *SubmitInput) { in.PhoneNumber = "555-1234" }, "phone_number"},
		{"letters in phone", func(in *SubmitInput) { in.PhoneNumber = "555-CALL-NOW" }, "phone_number"},
		{"plus in middle", func(in *SubmitInput) { in.PhoneNumber = "555+1234567" }, "phone_number"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cls := &fixedClassifier{}
			s := NewService(newMemStore(), cls, nil, zap.NewNop())
			in := validInput()
			tc.edit(&in)

			_, err := s.Submit(context.Background(), in)
			var verr *service.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
			assert.Empty(t, cls.seen, "classifier must not run for invalid input")
		})
	}
}

func TestSubmitDescriptionBounds(t *testing.T) {
	s := NewService(newMemStore(), &fixedClassifier{}, nil, zap.NewNop())

	in := validInput()
	in.Description = strings.Repeat("é", 10)
	_, err := s.Submit(context.Background(), in)
	assert.NoError(t, err)

	in.Description = strings.Repeat("b", 500)
	_, err = s.Submit(context.Background(), in)
	assert.NoError(t, err)
}

func TestSubmitIdempotencyKey(t *testing.T) {
	store := newMemStore()
	s := NewService(store, &fixedClassifier{}, memDeduper{}, zap.NewNop())

	in := validInput()
	in.IdempotencyKey = "abc"
	_, err := s.Submit(context.Background(), in)
	require.NoError(t, err)

	_, err = s.Submit(context.Background(), in)
	assert.ErrorIs(t, err, service.ErrDuplicateRequest)
	assert.Len(t, store.rows, 1)

	// same key from another user is independent
	in.UserID = 2
	_, err = s.Submit(context.Background(), in)
	assert.NoError(t, err)
}

func TestSubmitRetryAfterStoreFailure(t *testing.T) {
	store := newMemStore()
	dedup := memDeduper{}
	s := NewService(store, &fixedClassifier{}, dedup, zap.NewNop())

	in := validInput()
	in.IdempotencyKey = "retry-me"

	store.createErr = errors.New("connection reset")
	_, err := s.Submit(context.Background(), in)
	require.EqualError(t, err, "connection reset")
	assert.Empty(t, dedup, "failed submission must not hold its key")

	store.createErr = nil
	req, err := s.Submit(context.Background(), in)
	require.NoError(t, err)
	assert.Len(t, store.rows, 1)
	assert.Equal(t, req.ID, store.rows[req.ID].ID)

	_, err = s.Submit(context.Background(), in)
	assert.ErrorIs(t, err, service.ErrDuplicateRequest)
}

func TestSubmitStoreError(t *testing.T) {
	store := newMemStore()
	store.createErr = errors.New("db down")
	s := NewService(store, &fixedClassifier{}, nil, zap.NewNop())

	_, err := s.Submit(context.Background(), validInput())
	assert.EqualError(t, err, "db down")
}

func TestFeedClampsLimit(t *testing.T) {
	store := newMemStore()
	s := NewService(store, &fixedClassifier{}, nil, zap.NewNop())

	_, _ = s.Feed(context.Background(), 0, 0)
	assert.Equal(t, DefaultFeedLimit, store.feedLimit)
	_, _ = s.Feed(context.Background(), 10000, 0)
	assert.Equal(t, MaxFeedLimit, store.feedLimit)
	_, _ = s.Feed(context.Background(), 5, -3)
	assert.Equal(t, 5, store.feedLimit)
}

func TestDeletePermissions(t *testing.T) {
	ctx := context.Background()
	setup := func() (*Service, int64) {
		store := newMemStore()
		s := NewService(store, &fixedClassifier{}, nil, zap.NewNop())
		req, err := s.Submit(ctx, validInput())
		require.NoError(t, err)
		return s, req.ID
	}

	s, id := setup()
	assert.ErrorIs(t, s.Delete(ctx, 2, rbac.RoleUser, id), service.ErrForbidden)
	assert.NoError(t, s.Delete(ctx, 1, rbac.RoleUser, id))
	assert.ErrorIs(t, s.Delete(ctx, 1, rbac.RoleUser, id), service.ErrNotFound)

	s, id = setup()
	assert.NoError(t, s.Delete(ctx, 99, rbac.RoleCoordinator, id))

	s, id = setup()
	assert.NoError(t, s.Delete(ctx, 99, rbac.RoleAdmin, id))
}

func TestListMine(t *testing.T) {
	store := newMemStore()
	s := NewService(store, &fixedClassifier{}, nil, zap.NewNop())
	ctx := context.Background()

	_, err := s.Submit(ctx, validInput())
	require.NoError(t, err)
	other := validInput()
	other.UserID = 2
	_, err = s.Submit(ctx, other)
	require.NoError(t, err)

	mine, err := s.ListMine(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, int64(1), mine[0].UserID)
}
