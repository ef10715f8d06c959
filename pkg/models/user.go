package models

import "time"

// User represents a registered account
type User struct {
	ID           string    `json:"id" db:"id"` // UUID, assigned at signup
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
