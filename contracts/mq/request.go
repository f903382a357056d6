package mq

import "time"

// Routing keys on the relief.events exchange.
const (
	RoutingKeyRequestCreated = "request.created"
	RoutingKeyRequestDeleted = "request.deleted"
)

// RequestCreatedPayload is published once per stored aid request.
type RequestCreatedPayload struct {
	RequestID int64     `json:"request_id"`
	UserID    int64     `json:"user_id"`
	IsUrgent  bool      `json:"is_urgent"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
	TraceID   string    `json:"trace_id,omitempty"`
}

// RequestDeletedPayload is published when a request is taken off the board.
type RequestDeletedPayload struct {
	RequestID int64     `json:"request_id"`
	DeletedBy int64     `json:"deleted_by"`
	DeletedAt time.Time `json:"deleted_at"`
	TraceID   string    `json:"trace_id,omitempty"`
}
