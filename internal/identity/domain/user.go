package domain

import "time"

// User is the stored identity record. PasswordHash is the argon2id encoded
// digest; the plaintext never touches this struct and the hash never leaves
// the service boundary.
type User struct {
	ID           string
	Email        string // unique, compared case-insensitively
	PasswordHash string
	FirstName    string
	LastName     string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLogin    *time.Time // nil until the first successful login
}

// Profile is the sanitized view of a User returned to callers.
type Profile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Profile strips everything a caller should not see.
func (u User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}
