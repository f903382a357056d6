package request

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"reliefboard/internal/model"
	"reliefboard/internal/repository"
	"reliefboard/internal/service"
	"reliefboard/pkg/logger"
	"reliefboard/pkg/metrics"
	"reliefboard/pkg/rbac"
	"reliefboard/pkg/trace"
)

const (
	minDescriptionLen = 10
	maxDescriptionLen = 500
	minLocationLen    = 3
	minPhoneLen       = 10

	DefaultFeedLimit = 50
	MaxFeedLimit     = 200
)

var phonePattern = regexp.MustCompile(`^\+?[0-9\s\-()]+$`)

// Classifier decides whether a description is urgent. It never fails.
type Classifier interface {
	Classify(ctx context.Context, description string) bool
}

type Store interface {
	Create(ctx context.Context, req *model.AidRequest, traceID string) error
	Feed(ctx context.Context, limit, offset int) ([]model.AidRequest, error)
	ListByUser(ctx context.Context, userID int64) ([]model.AidRequest, error)
	FindByID(ctx context.Context, id int64) (*model.AidRequest, error)
	Delete(ctx context.Context, id, deletedBy int64, traceID string) error
}

// Deduper rejects a key it has already seen. Release forgets a key so the
// same submission can be retried.
type Deduper interface {
	AcquireOnce(ctx context.Context, scope, key string) bool
	Release(ctx context.Context, scope, key string)
}

type SubmitInput struct {
	UserID         int64
	Description    string
	Location       string
	PhoneNumber    string
	IdempotencyKey string
}

type Service struct {
	store      Store
	classifier Classifier
	deduper    Deduper
	logger     *zap.Logger
}

// NewService wires the board. deduper may be nil, which disables
// idempotency keys.
func NewService(store Store, classifier Classifier, deduper Deduper, logger *zap.Logger) *Service {
	return &Service{
		store:      store,
		classifier: classifier,
		deduper:    deduper,
		logger:     logger,
	}
}

func validate(in *SubmitInput) error {
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)

	if n := utf8.RuneCountInString(in.Description); n < minDescriptionLen || n > maxDescriptionLen {
		return service.Invalid("description", "must be between %d and %d characters", minDescriptionLen, maxDescriptionLen)
	}
	if utf8.RuneCountInString(in.Location) < minLocationLen {
		return service.Invalid("location", "must be at least %d characters", minLocationLen)
	}
	if len(in.PhoneNumber) < minPhoneLen || !phonePattern.MatchString(in.PhoneNumber) {
		return service.Invalid("phone_number", "must be at least %d digits, spaces, dashes or parentheses", minPhoneLen)
	}
	return nil
}

// Submit validates, classifies once and stores the request. The stored
// IsUrgent is exactly the classifier's verdict.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*model.AidRequest, error) {
	if err := validate(&in); err != nil {
		return nil, err
	}

	log := logger.WithTrace(ctx, s.logger)

	scope := "submit:" + strconv.FormatInt(in.UserID, 10)
	holdsKey := false
	if in.IdempotencyKey != "" && s.deduper != nil {
		if !s.deduper.AcquireOnce(ctx, scope, in.IdempotencyKey) {
			return nil, service.ErrDuplicateRequest
		}
		holdsKey = true
	}

	req := &model.AidRequest{
		UserID:      in.UserID,
		Description: in.Description,
		Location:    in.Location,
		PhoneNumber: in.PhoneNumber,
		IsUrgent:    s.classifier.Classify(ctx, in.Description),
	}

	if err := s.store.Create(ctx, req, trace.FromContext(ctx)); err != nil {
		log.Error("Failed to store aid request", zap.Int64("user_id", in.UserID), zap.Error(err))
		if holdsKey {
			// nothing was stored, so a retry with this key must go through
			s.deduper.Release(context.WithoutCancel(ctx), scope, in.IdempotencyKey)
		}
		return nil, err
	}

	metrics.IncrementAidRequestSubmitted(req.IsUrgent)
	log.Info("Aid request submitted",
		zap.Int64("request_id", req.ID),
		zap.Bool("is_urgent", req.IsUrgent),
	)
	return req, nil
}

// Feed returns the board, urgent requests first. limit is clamped to
// [1, MaxFeedLimit] with DefaultFeedLimit for non-positive values.
func (s *Service) Feed(ctx context.Context, limit, offset int) ([]model.AidRequest, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		limit = MaxFeedLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.Feed(ctx, limit, offset)
}

func (s *Service) ListMine(ctx context.Context, userID int64) ([]model.AidRequest, error) {
	return s.store.ListByUser(ctx, userID)
}

// Delete removes a request. Owners may delete their own; roles with
// delete-any permission may delete every request.
func (s *Service) Delete(ctx context.Context, actorID int64, role string, id int64) error {
	req, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return service.ErrNotFound
		}
		return err
	}

	if req.UserID != actorID && !rbac.HasPermission(role, rbac.PermissionDeleteAnyRequest) {
		return service.ErrForbidden
	}

	if err := s.store.Delete(ctx, id, actorID, trace.FromContext(ctx)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return service.ErrNotFound
		}
		return err
	}

	logger.WithTrace(ctx, s.logger).Info("Aid request deleted",
		zap.Int64("request_id", id),
		zap.Int64("deleted_by", actorID),
		zap.Bool("moderated", req.UserID != actorID),
	)
	return nil
}
