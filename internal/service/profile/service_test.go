package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reliefboard/internal/model"
	"reliefboard/internal/repository"
	"reliefboard/internal/service"
)

type memProfiles map[int64]model.Profile

func (m memProfiles) Get(_ context.Context, userID int64) (*model.Profile, error) {
	p, ok := m[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (m memProfiles) Upsert(_ context.Context, p *model.Profile) error {
	m[p.UserID] = *p
	return nil
}

func TestGetMissingProfile(t *testing.T) {
	_, err := NewService(memProfiles{}).Get(context.Background(), 1)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestUpdateAndGet(t *testing.T) {
	s := NewService(memProfiles{})
	ctx := context.Background()

	p, err := s.Update(ctx, 7, "  Sam ", 34, "Prefer Not To Say")
	require.NoError(t, err)
	assert.Equal(t, "Sam", p.DisplayName)
	assert.Equal(t, "prefer not to say", p.Gender)

	got, err := s.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 34, got.Age)
}

func TestUpdateValidation(t *testing.T) {
	s := NewService(memProfiles{})
	ctx := context.Background()

	cases := []struct {
		name   string
		dn     string
		age    int
		gender string
		field  string
	}{
		{"short name", "S", 30, "male", "display_name"},
		{"age zero", "Sam", 0, "male", "age"},
		{"age 120", "Sam", 120, "male", "age"},
		{"bad gender", "Sam", 30, "robot", "gender"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Update(ctx, 1, tc.dn, tc.age, tc.gender)
			var verr *service.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
			assert.ErrorIs(t, err, service.ErrValidation)
		})
	}

	_, err := s.Update(ctx, 1, "Sam", 119, "other")
	assert.NoError(t, err)
	_, err = s.Update(ctx, 1, "Sam", 1, "female")
	assert.NoError(t, err)
}
