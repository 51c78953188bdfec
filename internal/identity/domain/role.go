package domain

import "time"

// Canonical role names. The set is closed; adding a role means extending the
// rbac grant table, not the schema.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
	RoleGuest = "guest"
)

// Role is a named category of users.
type Role struct {
	ID          string
	Name        string // unique
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserRole joins a user to a role. The (UserID, RoleID) pair is unique; a user
// may hold zero or more roles, though the common case is exactly one.
type UserRole struct {
	UserID    string
	RoleID    string
	CreatedAt time.Time
}
