package mqhandler

import (
	"context"
	"encoding/json"
	"strconv"

	"go.uber.org/zap"

	contractsmq "reliefboard/contracts/mq"
	"reliefboard/pkg/logger"
	"reliefboard/pkg/metrics"
	"reliefboard/pkg/trace"
)

// Deduper rejects a key it has already seen.
type Deduper interface {
	AcquireOnce(ctx context.Context, scope, key string) bool
}

// RequestLookup reports whether a request is still on the board.
type RequestLookup interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// RequestCreatedAlertHandler raises one alert per urgent aid request.
type RequestCreatedAlertHandler struct {
	deduper Deduper
	lookup  RequestLookup
	logger  *zap.Logger
}

// NewRequestCreatedAlertHandler wires the handler. deduper and lookup may be
// nil.
func NewRequestCreatedAlertHandler(deduper Deduper, lookup RequestLookup, logger *zap.Logger) *RequestCreatedAlertHandler {
	return &RequestCreatedAlertHandler{
		deduper: deduper,
		lookup:  lookup,
		logger:  logger,
	}
}

// HandleRequestCreated -- alert coordinators about urgent requests
func (h *RequestCreatedAlertHandler) HandleRequestCreated(ctx context.Context, raw json.RawMessage) error {
	var p contractsmq.RequestCreatedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal request created payload", zap.Error(err))
		return err
	}

	if p.TraceID != "" && trace.FromContext(ctx) == "" {
		ctx = trace.WithContext(ctx, p.TraceID)
	}
	log := logger.WithTrace(ctx, h.logger)

	if !p.IsUrgent {
		return nil
	}

	if h.deduper != nil && !h.deduper.AcquireOnce(ctx, "alert", strconv.FormatInt(p.RequestID, 10)) {
		log.Info("Urgent alert already raised, skipping", zap.Int64("request_id", p.RequestID))
		return nil
	}

	if h.lookup != nil {
		exists, err := h.lookup.Exists(ctx, p.RequestID)
		if err != nil {
			log.Error("Failed to look up aid request", zap.Int64("request_id", p.RequestID), zap.Error(err))
			return err
		}
		if !exists {
			log.Info("Aid request removed before alert, skipping", zap.Int64("request_id", p.RequestID))
			return nil
		}
	}

	metrics.IncrementUrgentAlert()
	log.Warn("URGENT aid request",
		zap.Int64("request_id", p.RequestID),
		zap.Int64("user_id", p.UserID),
		zap.String("location", p.Location),
		zap.Time("created_at", p.CreatedAt),
	)
	return nil
}
