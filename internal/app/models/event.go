package models

import "time"

// Event is an alumni event announced by an admin.
type Event struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title" example:"Homecoming 2025"`
	Date        time.Time `json:"date" db:"date"`
	Location    string    `json:"location" db:"location" example:"Main campus"`
	Description string    `json:"description" db:"description"`
	CreatedBy   int64     `json:"createdBy" db:"created_by"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// PasswordResetOTP is a hashed one-time code for password recovery.
type PasswordResetOTP struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	CodeHash  string    `db:"code_hash"`
	ExpiresAt time.Time `db:"expires_at"`
	Used      bool      `db:"used"`
	CreatedAt time.Time `db:"created_at"`
}
