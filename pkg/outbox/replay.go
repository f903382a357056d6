package outbox

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ReplayService republishes events on demand, typically ones that ran out of
// retries.
type ReplayService struct {
	store      Store
	publisher  Publisher
	logger     *zap.Logger
	maxRetries int
}

func NewReplayService(store Store, publisher Publisher, logger *zap.Logger) *ReplayService {
	return &ReplayService{
		store:      store,
		publisher:  publisher,
		logger:     logger,
		maxRetries: 5,
	}
}

// ReplayEvent publishes a single event immediately, whatever its status.
func (s *ReplayService) ReplayEvent(ctx context.Context, eventID int64) error {
	event, err := s.store.GetEventByID(ctx, eventID)
	if err != nil {
		return err
	}

	if err := publish(ctx, s.publisher, event); err != nil {
		if markErr := s.store.MarkAsFailed(ctx, eventID, s.maxRetries); markErr != nil {
			return fmt.Errorf("%w (mark error: %v)", err, markErr)
		}
		return err
	}

	if err := s.store.MarkAsSent(ctx, eventID); err != nil {
		return fmt.Errorf("failed to mark as sent: %w", err)
	}

	s.logger.Info("Outbox event replayed",
		zap.Int64("event_id", eventID),
		zap.String("routing_key", event.RoutingKey),
	)
	return nil
}

// ReplayFailedEvents replays up to limit failed events and returns how many
// went out.
func (s *ReplayService) ReplayFailedEvents(ctx context.Context, limit int) (int, error) {
	events, err := s.store.GetFailedEvents(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to get failed events: %w", err)
	}

	successCount := 0
	for _, event := range events {
		if err := s.ReplayEvent(ctx, event.ID); err != nil {
			s.logger.Warn("Replay failed",
				zap.Int64("event_id", event.ID),
				zap.Error(err),
			)
			continue
		}
		successCount++
	}

	return successCount, nil
}
