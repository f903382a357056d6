package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"reliefboard/internal/model"
)

type ProfileRepository struct {
	db *pgxpool.Pool
}

func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Get(ctx context.Context, userID int64) (*model.Profile, error) {
	query := `
        SELECT user_id, display_name, age, gender, updated_at
        FROM profiles
        WHERE user_id = $1
    `
	var p model.Profile
	err := r.db.QueryRow(ctx, query, userID).Scan(&p.UserID, &p.DisplayName, &p.Age, &p.Gender, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	return &p, nil
}

// Upsert creates or replaces the profile and fills UpdatedAt.
func (r *ProfileRepository) Upsert(ctx context.Context, p *model.Profile) error {
	query := `
        INSERT INTO profiles (user_id, display_name, age, gender, updated_at)
        VALUES ($1, $2, $3, $4, NOW())
        ON CONFLICT (user_id) DO UPDATE
        SET display_name = EXCLUDED.display_name,
            age = EXCLUDED.age,
            gender = EXCLUDED.gender,
            updated_at = NOW()
        RETURNING updated_at
    `
	if err := r.db.QueryRow(ctx, query, p.UserID, p.DisplayName, p.Age, p.Gender).Scan(&p.UpdatedAt); err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}
