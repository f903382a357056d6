package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	contractsmq "reliefboard/contracts/mq"
	"reliefboard/internal/model"
	"reliefboard/pkg/outbox"
)

const aggregateRequest = "aid_request"

type RequestRepository struct {
	db     *pgxpool.Pool
	outbox *outbox.Repository
	logger *zap.Logger
}

func NewRequestRepository(db *pgxpool.Pool, outboxRepo *outbox.Repository, logger *zap.Logger) *RequestRepository {
	return &RequestRepository{db: db, outbox: outboxRepo, logger: logger}
}

// Create stores req and its request.created event in one transaction, then
// fills ID and CreatedAt.
func (r *RequestRepository) Create(ctx context.Context, req *model.AidRequest, traceID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
        INSERT INTO aid_requests (user_id, description, location, phone_number, is_urgent, created_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
        RETURNING id, created_at
    `
	err = tx.QueryRow(ctx, query,
		req.UserID, req.Description, req.Location, req.PhoneNumber, req.IsUrgent,
	).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert aid request: %w", err)
	}

	payload := contractsmq.RequestCreatedPayload{
		RequestID: req.ID,
		UserID:    req.UserID,
		IsUrgent:  req.IsUrgent,
		Location:  req.Location,
		CreatedAt: req.CreatedAt,
		TraceID:   traceID,
	}
	if err := outbox.InsertEventInTx(ctx, tx, r.outbox, aggregateRequest, &req.ID, contractsmq.RoutingKeyRequestCreated, payload); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit aid request: %w", err)
	}

	r.logger.Info("Aid request stored",
		zap.Int64("request_id", req.ID),
		zap.Int64("user_id", req.UserID),
		zap.Bool("is_urgent", req.IsUrgent),
	)
	return nil
}

const requestColumns = `
            r.id, r.user_id, u.email, r.description, r.location, r.phone_number, r.is_urgent, r.created_at
        FROM aid_requests r
        JOIN users u ON u.id = r.user_id`

func scanRequests(rows pgx.Rows) ([]model.AidRequest, error) {
	defer rows.Close()

	out := []model.AidRequest{}
	for rows.Next() {
		var a model.AidRequest
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.UserEmail, &a.Description, &a.Location, &a.PhoneNumber, &a.IsUrgent, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan aid request: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Feed lists requests urgent first, then newest first.
func (r *RequestRepository) Feed(ctx context.Context, limit, offset int) ([]model.AidRequest, error) {
	rows, err := r.db.Query(ctx, `
        SELECT`+requestColumns+`
        ORDER BY r.is_urgent DESC, r.created_at DESC, r.id DESC
        LIMIT $1 OFFSET $2
    `, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query feed: %w", err)
	}
	return scanRequests(rows)
}

// ListByUser lists one user's requests, newest first.
func (r *RequestRepository) ListByUser(ctx context.Context, userID int64) ([]model.AidRequest, error) {
	rows, err := r.db.Query(ctx, `
        SELECT`+requestColumns+`
        WHERE r.user_id = $1
        ORDER BY r.created_at DESC, r.id DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user requests: %w", err)
	}
	return scanRequests(rows)
}

func (r *RequestRepository) FindByID(ctx context.Context, id int64) (*model.AidRequest, error) {
	rows, err := r.db.Query(ctx, `
        SELECT`+requestColumns+`
        WHERE r.id = $1
    `, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query aid request: %w", err)
	}
	list, err := scanRequests(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return &list[0], nil
}

// Delete removes the request and records request.deleted in one transaction.
func (r *RequestRepository) Delete(ctx context.Context, id, deletedBy int64, traceID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `DELETE FROM aid_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete aid request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	payload := contractsmq.RequestDeletedPayload{
		RequestID: id,
		DeletedBy: deletedBy,
		DeletedAt: time.Now().UTC(),
		TraceID:   traceID,
	}
	if err := outbox.InsertEventInTx(ctx, tx, r.outbox, aggregateRequest, &id, contractsmq.RoutingKeyRequestDeleted, payload); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

// Exists is used by event consumers to skip requests removed after publishing.
func (r *RequestRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM aid_requests WHERE id = $1)`, id).Scan(&exists)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("failed to check aid request: %w", err)
	}
	return exists, nil
}
