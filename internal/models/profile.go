package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the application-side identity for a user. Each user has at most
// one profile, created lazily on the first create-profile call.
type Profile struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	Points      int       `json:"points"`
	LevelID     int       `json:"level_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Level is a gamification tier (seeded fixture data).
type Level struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	MinPoints int    `json:"min_points"`
}
