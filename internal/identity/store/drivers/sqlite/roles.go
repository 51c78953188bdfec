package sqlite

import (
	"context"
	"time"

	"github.com/lockhaven/identity/internal/identity/domain"
)

type rolesRepo struct {
	db dbtx
}

func (r *rolesRepo) GetRoleByName(ctx context.Context, name string) (domain.Role, error) {
	var role domain.Role
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM roles WHERE name = ?`,
		name,
	).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return domain.Role{}, mapErr(err)
	}
	return role, nil
}

func (r *rolesRepo) ListRoles(ctx context.Context) ([]domain.Role, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM roles ORDER BY name`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, mapErr(err)
		}
		roles = append(roles, role)
	}
	return roles, mapErr(rows.Err())
}

func (r *rolesRepo) ListRolesForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.name
		   FROM roles r
		   JOIN user_roles ur ON ur.role_id = r.id
		  WHERE ur.user_id = ?
		  ORDER BY r.name`,
		userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, mapErr(err)
		}
		names = append(names, name)
	}
	return names, mapErr(rows.Err())
}

func (r *rolesRepo) AssignRole(ctx context.Context, userID, roleID string) error {
	// INSERT OR IGNORE keeps re-assignment idempotent.
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_roles (user_id, role_id, created_at) VALUES (?, ?, ?)`,
		userID, roleID, time.Now().UTC())
	return mapErr(err)
}

func (r *rolesRepo) UnassignRole(ctx context.Context, userID, roleID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_roles WHERE user_id = ? AND role_id = ?`,
		userID, roleID)
	return mapErr(err)
}
