package model

import "time"

// Role values stored in users.role.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Account status values stored in users.status.
const (
	StatusActive      = "ACTIVE"
	StatusDeactivated = "DEACTIVATED"
)

// User represents an application user record as stored in the `users`
// table.  IDs are opaque UUID strings so nothing about registration order
// leaks through the API.
//
// InvalidatedSince is the session-invalidation watermark: any session token
// issued before this instant is dead, regardless of its own expiry.  It is
// nil until an administrator forces a logout or deactivates the account,
// and it only ever moves forward.
type User struct {
	ID               string     // users.id (UUID)
	Name             string     // users.name
	Email            string     // users.email (unique, stored lower-cased)
	PasswordHash     string     // users.password_hash (bcrypt)
	Company          string     // users.company
	Title            string     // users.title
	Role             string     // users.role (USER | ADMIN)
	Status           string     // users.status (ACTIVE | DEACTIVATED)
	InvalidatedSince *time.Time // users.invalidated_since (nullable watermark)
	CreatedAt        time.Time  // users.created_at
	UpdatedAt        time.Time  // users.updated_at
}

// PublicUser is the API-facing projection of a User.  The password hash and
// the watermark never cross the API boundary.
type PublicUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email"`
	Company   string    `json:"company,omitempty"`
	Title     string    `json:"title,omitempty"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Public returns the API projection of u.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Company:   u.Company,
		Title:     u.Title,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
	}
}
