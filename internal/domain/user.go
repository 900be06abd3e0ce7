package domain

import "time"

// User is an account that owns books.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // argon2id encoded, never printed or exported
	CreatedAt    time.Time `json:"created_at"`
}
