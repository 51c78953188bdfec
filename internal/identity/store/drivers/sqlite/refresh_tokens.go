package sqlite

import (
	"context"
	"time"

	"github.com/lockhaven/identity/internal/identity/domain"
	"github.com/lockhaven/identity/internal/identity/store"
)

type refreshTokensRepo struct {
	db dbtx
}

const refreshTokenColumns = `id, user_id, token_hash, expires_at, revoked, created_at, updated_at`

func scanRefreshToken(row interface{ Scan(...any) error }) (domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.TokenHash,
		&t.ExpiresAt,
		&t.Revoked,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return domain.RefreshToken{}, mapErr(err)
	}
	return t, nil
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.TokenHash, t.ExpiresAt, t.Revoked, t.CreatedAt, t.UpdatedAt)
	return mapErr(err)
}

func (r *refreshTokensRepo) GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+refreshTokenColumns+` FROM refresh_tokens WHERE token_hash = ?`, hash)
	return scanRefreshToken(row)
}

// ConsumeRefreshToken claims a live token with a single compare-and-set: the
// UPDATE only matches a non-revoked, non-expired record, so of any number of
// concurrent consumers of the same hash exactly one sees a row flip. Losers
// re-read the record to tell revoked from expired from unknown.
func (r *refreshTokensRepo) ConsumeRefreshToken(ctx context.Context, hash string, now time.Time) (domain.RefreshToken, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens
		    SET revoked = 1, updated_at = ?
		  WHERE token_hash = ? AND revoked = 0 AND expires_at > ?`,
		now, hash, now)
	if err != nil {
		return domain.RefreshToken{}, mapErr(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return domain.RefreshToken{}, err
	}

	if n == 1 {
		return r.GetRefreshTokenByHash(ctx, hash)
	}

	// CAS missed: classify why.
	t, err := r.GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		return domain.RefreshToken{}, err // ErrNotFound for unknown hashes
	}
	if !t.Revoked && !t.ExpiresAt.After(now) {
		// Expired but never claimed. Revoke eagerly so a later clock skew
		// cannot resurrect it, then report the expiry.
		if err := r.RevokeRefreshToken(ctx, hash); err != nil {
			return domain.RefreshToken{}, err
		}
		return domain.RefreshToken{}, store.ErrExpired
	}
	return domain.RefreshToken{}, store.ErrRevoked
}

func (r *refreshTokensRepo) RevokeRefreshToken(ctx context.Context, hash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1, updated_at = ? WHERE token_hash = ? AND revoked = 0`,
		time.Now().UTC(), hash)
	return mapErr(err)
}

func (r *refreshTokensRepo) RevokeAllUserRefreshTokens(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1, updated_at = ? WHERE user_id = ? AND revoked = 0`,
		time.Now().UTC(), userID)
	return mapErr(err)
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at <= ?`, time.Now().UTC())
	return mapErr(err)
}
