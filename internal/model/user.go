package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a user account and its profile attributes
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Do not expose password hash in JSON responses
	Role         string    `json:"role"`
	FullName     *string   `json:"full_name"` // Pointers for optional profile fields
	Email        *string   `json:"email"`
	AvatarURL    *string   `json:"avatar_url"`
	Bio          *string   `json:"bio"`
	CreatedAt    time.Time `json:"created_at"`
	Phones       []string  `json:"phones"`
}

// AuthUser is the caller identity attached to the request context by the JWT
// middleware. The core trusts it as-is and never re-verifies it.
type AuthUser struct {
	ID       int64
	Username string
	Role     string
}

// UpdateProfileRequest is used for PUT /me; every attribute is optional and
// the phone collection is fully replaced.
type UpdateProfileRequest struct {
	FullName  *string    `json:"full_name"`
	Email     *string    `json:"email"`
	AvatarURL *string    `json:"avatar_url"`
	Bio       *string    `json:"bio"`
	Phones    PhoneInput `json:"phones"`
}
