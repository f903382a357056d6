package profile

import (
	"context"
	"errors"
	"slices"
	"strings"

	"reliefboard/internal/model"
	"reliefboard/internal/repository"
	"reliefboard/internal/service"
)

// Genders accepted on a profile.
var Genders = []string{"male", "female", "other", "prefer not to say"}

type Store interface {
	Get(ctx context.Context, userID int64) (*model.Profile, error)
	Upsert(ctx context.Context, p *model.Profile) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Get(ctx context.Context, userID int64) (*model.Profile, error) {
	p, err := s.store.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, service.ErrNotFound
	}
	return p, err
}

// Update validates and saves the profile of userID.
func (s *Service) Update(ctx context.Context, userID int64, displayName string, age int, gender string) (*model.Profile, error) {
	displayName = strings.TrimSpace(displayName)
	gender = strings.ToLower(strings.TrimSpace(gender))

	if len([]rune(displayName)) < 2 {
		return nil, service.Invalid("display_name", "must be at least 2 characters")
	}
	if age < 1 || age > 119 {
		return nil, service.Invalid("age", "must be between 1 and 119")
	}
	if !slices.Contains(Genders, gender) {
		return nil, service.Invalid("gender", "must be one of %s", strings.Join(Genders, ", "))
	}

	p := &model.Profile{
		UserID:      userID,
		DisplayName: displayName,
		Age:         age,
		Gender:      gender,
	}
	if err := s.store.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
