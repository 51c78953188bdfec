package service

import (
	"context"
	"testing"

	"github.com/lockhaven/identity/internal/identity/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Profile(t *testing.T) {
	auth, st := newTestAuthService(t)
	users := &UserService{Store: st}
	ctx := context.Background()

	session := registerAndLogin(t, auth, "profile@example.com")

	t.Run("get", func(t *testing.T) {
		p, err := users.GetProfile(ctx, session.User.ID)
		require.NoError(t, err)
		assert.Equal(t, "profile@example.com", p.Email)
		assert.Equal(t, "Test", p.FirstName)
	})

	t.Run("update", func(t *testing.T) {
		p, err := users.UpdateProfile(ctx, session.User.ID, "New", "Name")
		require.NoError(t, err)
		assert.Equal(t, "New", p.FirstName)
		assert.Equal(t, "Name", p.LastName)
	})

	t.Run("update rejects empty names", func(t *testing.T) {
		_, err := users.UpdateProfile(ctx, session.User.ID, "  ", "")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := users.GetProfile(ctx, "no-such-user")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestUserService_DeleteAccount(t *testing.T) {
	auth, st := newTestAuthService(t)
	users := &UserService{Store: st}
	ctx := context.Background()

	session := registerAndLogin(t, auth, "delete-me@example.com")

	require.NoError(t, users.DeleteAccount(ctx, session.User.ID))

	_, err := users.GetProfile(ctx, session.User.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// The session's refresh token dies with the account.
	_, err = auth.Refresh(ctx, session.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestUserService_ListUsers(t *testing.T) {
	auth, st := newTestAuthService(t)
	users := &UserService{Store: st}
	ctx := context.Background()

	registerAndLogin(t, auth, "first@example.com")
	registerAndLogin(t, auth, "second@example.com")

	list, err := users.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	emails := []string{list[0].Email, list[1].Email}
	assert.ElementsMatch(t, []string{"first@example.com", "second@example.com"}, emails)
}
