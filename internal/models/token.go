package models

import "time"

// RefreshToken represents a persisted, revocable session credential. It is
// valid while it exists in the store and its expiry lies in the future;
// expired rows are deleted lazily when the token is next presented.
type RefreshToken struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Token     string    `db:"token" json:"token"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
