package model

import "time"

// AidRequest is a help request posted to the board. IsUrgent is set once at
// submission and never recomputed.
type AidRequest struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	UserEmail   string    `json:"user_email"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	PhoneNumber string    `json:"phone_number"`
	IsUrgent    bool      `json:"is_urgent"`
	CreatedAt   time.Time `json:"created_at"`
}
