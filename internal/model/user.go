package model

import "time"

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

type Profile struct {
	UserID      int64     `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Age         int       `json:"age"`
	Gender      string    `json:"gender"`
	UpdatedAt   time.Time `json:"updated_at"`
}
