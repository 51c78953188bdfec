package store

import (
	"context"
	"errors"
	"time"

	"github.com/lockhaven/identity/internal/identity/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrRevoked and ErrExpired classify refresh-token consume failures.
	// Callers map both to their external error taxonomy; the distinction
	// exists for logging and for the expiry-specific response.
	ErrRevoked = errors.New("store: token revoked")
	ErrExpired = errors.New("store: token expired")

	// ErrUnavailable wraps infrastructure failures (connection loss, busy
	// timeouts). Surfaced as 5xx, never retried inside the core.
	ErrUnavailable = errors.New("store: unavailable")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens
	Roles() Roles

	ApplyMigrations() error

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks up a user by email, case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the email is already taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateLastLogin stamps last_login and bumps updated_at.
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error

	// UpdateProfile mutates first/last name and bumps updated_at.
	UpdateProfile(ctx context.Context, userID, firstName, lastName string) error

// SetActive flips the is_active flag. Deactivated users keep their row
	// but fail login and refresh.
	SetActive(ctx context.Context, userID string, active bool) error

	// DeleteUser cascades to refresh_tokens and user_roles (per schema).
	DeleteUser(ctx context.Context, userID string) error

	// ListUsers returns all users ordered by creation date (newest first).
	ListUsers(ctx context.Context) ([]domain.User, error)
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the token record by its fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// ConsumeRefreshToken atomically claims a live token: a compare-and-set
	// flips revoked for the matching non-revoked, non-expired record and
	// returns it. Exactly one of any number of concurrent consumers of the
	// same hash succeeds; the rest see ErrRevoked. Expired records return
	// ErrExpired (and are eagerly revoked); unknown hashes return ErrNotFound.
	ConsumeRefreshToken(ctx context.Context, hash string, now time.Time) (domain.RefreshToken, error)

	// RevokeRefreshToken flips revoked, sets updated_at. Idempotent: revoking
	// an unknown or already-revoked hash is not an error.
	RevokeRefreshToken(ctx context.Context, hash string) error

	// RevokeAllUserRefreshTokens bulk revocation for a user (log out
	// everywhere, credential compromise response).
	RevokeAllUserRefreshTokens(ctx context.Context, userID string) error

	// DeleteExpiredRefreshTokens is optional housekeeping; correctness never
	// depends on it.
	DeleteExpiredRefreshTokens(ctx context.Context) error
}

type Roles interface {
	// GetRoleByName fetches a role by its unique name.
	GetRoleByName(ctx context.Context, name string) (domain.Role, error)

	// ListRoles returns all roles in the system.
	ListRoles(ctx context.Context) ([]domain.Role, error)

	// ListRolesForUser returns the role names held by a user.
	ListRolesForUser(ctx context.Context, userID string) ([]string, error)

	// AssignRole links a user to a role. Assigning an already-held role is
	// not an error.
	AssignRole(ctx context.Context, userID, roleID string) error

	// UnassignRole removes a user-role link.
	UnassignRole(ctx context.Context, userID, roleID string) error
}
