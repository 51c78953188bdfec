package service

import (
	"context"
	"strings"

	"github.com/lockhaven/identity/internal/identity/domain"
	"github.com/lockhaven/identity/internal/identity/store"
)

type UserService struct {
	Store store.Store
}

// GetProfile fetches the sanitized profile for a user.
func (s *UserService) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	return u.Profile(), nil
}

// UpdateProfile changes the user's first and last name.
func (s *UserService) UpdateProfile(ctx context.Context, userID, firstName, lastName string) (domain.Profile, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" && lastName == "" {
		return domain.Profile{}, ErrValidation
	}

	if err := s.Store.Users().UpdateProfile(ctx, userID, firstName, lastName); err != nil {
		return domain.Profile{}, err
	}
	return s.GetProfile(ctx, userID)
}

// DeleteAccount removes the user and revokes every refresh token they hold.
// The row delete cascades to user_roles and refresh_tokens, but revocation
// runs first in the same transaction so a concurrent refresh cannot win.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().RevokeAllUserRefreshTokens(ctx, userID); err != nil {
			return err
		}
		return tx.Users().DeleteUser(ctx, userID)
	})
}

// ListUsers returns all user profiles, newest first.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.Profile, error) {
	users, err := s.Store.Users().ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	profiles := make([]domain.Profile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Profile())
	}
	return profiles, nil
}

// RolesForUser returns the role names held by the user.
func (s *UserService) RolesForUser(ctx context.Context, userID string) ([]string, error) {
	return s.Store.Roles().ListRolesForUser(ctx, userID)
}
