package domain

import "time"

// Tag is a user-owned label. Name is unique per user; the store
// enforces the uniqueness through its user+name index.
type Tag struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
