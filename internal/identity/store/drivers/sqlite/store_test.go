package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/lockhaven/identity/internal/identity/domain"
	"github.com/lockhaven/identity/internal/identity/store"
	"github.com/lockhaven/identity/pkg/idx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "identity.db") + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	s, err := NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedUser(t *testing.T, s *Store, email string) domain.User {
	t.Helper()

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		FirstName:    "Test",
		LastName:     "User",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func seedRefreshToken(t *testing.T, s *Store, userID, hash string, expiresAt time.Time) domain.RefreshToken {
	t.Helper()

	now := time.Now().UTC()
	rt := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(context.Background(), rt))
	return rt
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "alice@example.com")

	dup := domain.User{
		ID:           idx.New().String(),
		Email:        "Alice@Example.COM", // differs only in case
		PasswordHash: "x",
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	err := s.Users().CreateUser(ctx, dup)
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestGetUserByEmail_CaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "bob@example.com")

	got, err := s.Users().GetUserByEmail(ctx, "BOB@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestUsers_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Users().GetUserByID(ctx, idx.New().String())
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.Users().UpdateProfile(ctx, idx.New().String(), "A", "B")
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.Users().DeleteUser(ctx, idx.New().String())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteUser_CascadesTokensAndRoles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "carol@example.com")

	role, err := s.Roles().GetRoleByName(ctx, domain.RoleUser)
	require.NoError(t, err)
	require.NoError(t, s.Roles().AssignRole(ctx, u.ID, role.ID))

	rt := seedRefreshToken(t, s, u.ID, "hash-cascade", time.Now().UTC().Add(time.Hour))

	require.NoError(t, s.Users().DeleteUser(ctx, u.ID))

	_, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, rt.TokenHash)
	assert.ErrorIs(t, err, store.ErrNotFound)

	roles, err := s.Roles().ListRolesForUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, roles)
}

func TestSeededRoles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	roles, err := s.Roles().ListRoles(ctx)
	require.NoError(t, err)

	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	assert.ElementsMatch(t, []string{domain.RoleAdmin, domain.RoleUser, domain.RoleGuest}, names)
}

func TestAssignRole_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "dave@example.com")
	role, err := s.Roles().GetRoleByName(ctx, domain.RoleAdmin)
	require.NoError(t, err)

	require.NoError(t, s.Roles().AssignRole(ctx, u.ID, role.ID))
	require.NoError(t, s.Roles().AssignRole(ctx, u.ID, role.ID))

	names, err := s.Roles().ListRolesForUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.RoleAdmin}, names)
}

func TestConsumeRefreshToken(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	u := seedUser(t, s, "eve@example.com")

	t.Run("live token is consumed once", func(t *testing.T) {
		seedRefreshToken(t, s, u.ID, "hash-live", now.Add(time.Hour))

		rt, err := s.RefreshTokens().ConsumeRefreshToken(ctx, "hash-live", now)
		require.NoError(t, err)
		assert.Equal(t, u.ID, rt.UserID)

		_, err = s.RefreshTokens().ConsumeRefreshToken(ctx, "hash-live", now)
		assert.ErrorIs(t, err, store.ErrRevoked)
	})

	t.Run("expired token", func(t *testing.T) {
		seedRefreshToken(t, s, u.ID, "hash-expired", now.Add(-time.Minute))

		_, err := s.RefreshTokens().ConsumeRefreshToken(ctx, "hash-expired", now)
		assert.ErrorIs(t, err, store.ErrExpired)

		// Once reported expired the record is revoked, so a caller with a
		// skewed clock still cannot claim it.
		rec, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "hash-expired")
		require.NoError(t, err)
		assert.True(t, rec.Revoked)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := s.RefreshTokens().ConsumeRefreshToken(ctx, "hash-unknown", now)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestConsumeRefreshToken_ExactlyOneWinner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	u := seedUser(t, s, "frank@example.com")
	seedRefreshToken(t, s, u.ID, "hash-race", now.Add(time.Hour))

	const n = 16
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		wins   int
		losses int
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.RefreshTokens().ConsumeRefreshToken(ctx, "hash-race", now)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, store.ErrRevoked):
				losses++
			default:
				t.Errorf("unexpected consume error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins, "exactly one concurrent consumer must win")
	assert.Equal(t, n-1, losses)
}

func TestRevokeRefreshToken_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "grace@example.com")
	seedRefreshToken(t, s, u.ID, "hash-revoke", time.Now().UTC().Add(time.Hour))

	require.NoError(t, s.RefreshTokens().RevokeRefreshToken(ctx, "hash-revoke"))
	require.NoError(t, s.RefreshTokens().RevokeRefreshToken(ctx, "hash-revoke"))
	require.NoError(t, s.RefreshTokens().RevokeRefreshToken(ctx, "hash-never-existed"))
}

func TestRevokeAllUserRefreshTokens(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	u := seedUser(t, s, "heidi@example.com")
	other := seedUser(t, s, "ivan@example.com")

	seedRefreshToken(t, s, u.ID, "hash-u-1", now.Add(time.Hour))
	seedRefreshToken(t, s, u.ID, "hash-u-2", now.Add(time.Hour))
	seedRefreshToken(t, s, other.ID, "hash-other", now.Add(time.Hour))

	require.NoError(t, s.RefreshTokens().RevokeAllUserRefreshTokens(ctx, u.ID))

	for _, hash := range []string{"hash-u-1", "hash-u-2"} {
		rec, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
		require.NoError(t, err)
		assert.True(t, rec.Revoked, hash)
	}

	rec, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "hash-other")
	require.NoError(t, err)
	assert.False(t, rec.Revoked, "other user's token must stay live")
}

func TestDeleteExpiredRefreshTokens(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	u := seedUser(t, s, "judy@example.com")
	seedRefreshToken(t, s, u.ID, "hash-old", now.Add(-time.Hour))
	seedRefreshToken(t, s, u.ID, "hash-new", now.Add(time.Hour))

	require.NoError(t, s.RefreshTokens().DeleteExpiredRefreshTokens(ctx))

	_, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "hash-old")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, "hash-new")
	require.NoError(t, err)
}

func TestWithTx_RollbackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sentinel := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		u := domain.User{
			ID:           idx.New().String(),
			Email:        "rollback@example.com",
			PasswordHash: "x",
			IsActive:     true,
			CreatedAt:    time.Now().UTC(),
			UpdatedAt:    time.Now().UTC(),
		}
		if err := tx.Users().CreateUser(ctx, u); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, err = s.Users().GetUserByEmail(ctx, "rollback@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
