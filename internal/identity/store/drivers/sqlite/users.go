package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/lockhaven/identity/internal/identity/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, email, password_hash, first_name, last_name, is_active, created_at, updated_at, last_login`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var (
		u         domain.User
		lastLogin sql.NullTime
	)
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
		&lastLogin,
	)
	if err != nil {
		return domain.User{}, mapErr(err)
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	// email column is COLLATE NOCASE, so this match is case-insensitive.
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, first_name, last_name, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.IsActive, u.CreatedAt, u.UpdatedAt)
	return mapErr(err)
}

func (r *usersRepo) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_login = ?, updated_at = ? WHERE id = ?`,
		at, at, userID)
	return mapErr(err)
}

func (r *usersRepo) UpdateProfile(ctx context.Context, userID, firstName, lastName string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET first_name = ?, last_name = ?, updated_at = ? WHERE id = ?`,
		firstName, lastName, time.Now().UTC(), userID)
	if err != nil {
		return mapErr(err)
	}
	return requireRows(res)
}

func (r *usersRepo) SetActive(ctx context.Context, userID string, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC(), userID)
	if err != nil {
		return mapErr(err)
	}
	return requireRows(res)
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return mapErr(err)
	}
	return requireRows(res)
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, mapErr(rows.Err())
}
