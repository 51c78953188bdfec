package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/lockhaven/identity/internal/identity/domain"
	"github.com/lockhaven/identity/internal/identity/store"
	"github.com/lockhaven/identity/pkg/cryptox"
	"github.com/lockhaven/identity/pkg/idx"
	"github.com/lockhaven/identity/pkg/jwtx"
	"github.com/lockhaven/identity/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrDuplicateEmail     = errors.New("email_already_registered")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")
	ErrExpiredRefresh     = errors.New("refresh_token_expired")
	ErrUserInactive       = errors.New("user_inactive")
	ErrValidation         = errors.New("validation_failed")
)

// decoyHash is a real argon2id digest of a random throwaway value. The login
// path verifies against it when the email is unknown so both failure branches
// cost one hash verification.
const decoyHash = "$argon2id$v=19$m=19456,t=2,p=1$AAAAAAAAAAAAAAAAAAAAAA$oXJW0qXvVF3vX9nD1qZ0yGqZ3hY5uW7cT2mKxR8bLnE"

type AuthService struct {
	Store         store.Store
	Signer        jwtx.Signer
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	RefreshSecret string
	DefaultRole   string // role granted at registration, normally domain.RoleUser
}

// RegisterParams carries the registration request after transport decoding.
type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates a new user with the default role and returns its profile.
// Duplicate emails (case-insensitive) return ErrDuplicateEmail.
func (s *AuthService) Register(ctx context.Context, p RegisterParams) (domain.Profile, error) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	p.Email = strings.TrimSpace(strings.ToLower(p.Email))
	if err := validateRegistration(p); err != nil {
		return domain.Profile{}, err
	}

	hash, err := cryptox.HashPassword(p.Password)
	if err != nil {
		return domain.Profile{}, err
	}

	u := domain.User{
		ID:           idx.New().String(),
		Email:        p.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(p.FirstName),
		LastName:     strings.TrimSpace(p.LastName),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	role := s.DefaultRole
	if role == "" {
		role = domain.RoleUser
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, u); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrDuplicateEmail
			}
			return err
		}

		r, err := tx.Roles().GetRoleByName(ctx, role)
		if err != nil {
			return err
		}
		return tx.Roles().AssignRole(ctx, u.ID, r.ID)
	})
	if err != nil {
		return domain.Profile{}, err
	}

	l.Info("user registered", slog.String("user_id", u.ID))
	return u.Profile(), nil
}

// Login verifies credentials and issues a fresh token pair. Unknown emails and
// wrong passwords are indistinguishable to the caller; both paths verify one
// argon2 digest before returning ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	email = strings.TrimSpace(strings.ToLower(email))

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = cryptox.VerifyPassword(password, decoyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Info("login rejected", slog.String("user_id", u.ID))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !u.IsActive {
		return nil, ErrUserInactive
	}

	roles, err := s.Store.Roles().ListRolesForUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	session, err := s.issueSession(ctx, u, roles, now)
	if err != nil {
		return nil, err
	}

	if err := s.Store.Users().UpdateLastLogin(ctx, u.ID, now); err != nil {
		// The session is already issued; a failed stamp is not fatal.
		l.Warn("failed to stamp last_login", slog.Any("error", err), slog.String("user_id", u.ID))
	}

	l.Info("login succeeded", slog.String("user_id", u.ID))
	return session, nil
}

// Refresh rotates a refresh token: it atomically consumes the presented token
// and issues a new pair. A token can be refreshed at most once; replays of a
// consumed token fail with ErrInvalidRefresh.
func (s *AuthService) Refresh(ctx context.Context, refreshOpaque string) (*domain.Session, error) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	if refreshOpaque == "" {
		return nil, ErrInvalidRefresh
	}
	fp := cryptox.FingerprintTokenHMAC(refreshOpaque, s.RefreshSecret)

	var session *domain.Session
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		rt, err := tx.RefreshTokens().ConsumeRefreshToken(ctx, fp, now)
		if err != nil {
			switch {
			case errors.Is(err, store.ErrExpired):
				return ErrExpiredRefresh
			case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrRevoked):
				return ErrInvalidRefresh
			}
			return err
		}

		u, err := tx.Users().GetUserByID(ctx, rt.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}
		if !u.IsActive {
			return ErrUserInactive
		}

		roles, err := tx.Roles().ListRolesForUser(ctx, u.ID)
		if err != nil {
			return err
		}

		session, err = s.issueSessionTx(ctx, tx, u, roles, now)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrInvalidRefresh) || errors.Is(err, ErrExpiredRefresh) {
			l.Info("refresh rejected", slog.Any("reason", err))
		}
		return nil, err
	}

	return session, nil
}

// Logout revokes the presented refresh token. Unknown, expired, and already
// revoked tokens are all treated as success so logout is idempotent and leaks
// nothing about token state.
func (s *AuthService) Logout(ctx context.Context, refreshOpaque string) error {
	if refreshOpaque == "" {
		return nil
	}
	fp := cryptox.FingerprintTokenHMAC(refreshOpaque, s.RefreshSecret)
	return s.Store.RefreshTokens().RevokeRefreshToken(ctx, fp)
}

// issueSession signs an access token and persists a new refresh token outside
// any caller transaction.
func (s *AuthService) issueSession(ctx context.Context, u domain.User, roles []string, now time.Time) (*domain.Session, error) {
	return s.issue(ctx, s.Store.RefreshTokens(), u, roles, now)
}

// issueSessionTx is issueSession under an existing transaction, used by
// Refresh so revoke-old and create-new commit together.
func (s *AuthService) issueSessionTx(ctx context.Context, tx store.Tx, u domain.User, roles []string, now time.Time) (*domain.Session, error) {
	return s.issue(ctx, tx.RefreshTokens(), u, roles, now)
}

func (s *AuthService) issue(ctx context.Context, tokens store.RefreshTokens, u domain.User, roles []string, now time.Time) (*domain.Session, error) {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	claims := jwtx.NewAccessClaims(u.ID, u.Email, name, roles, s.AccessTTL, s.Issuer, now)

	accessToken, err := s.Signer.Sign(claims)
	if err != nil {
		return nil, err
	}

	refreshOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	rt := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    u.ID,
		TokenHash: cryptox.FingerprintTokenHMAC(refreshOpaque, s.RefreshSecret),
		ExpiresAt: now.Add(s.RefreshTTL),
		Revoked:   false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tokens.CreateRefreshToken(ctx, rt); err != nil {
		return nil, err
	}

	return &domain.Session{
		Tokens: domain.TokenPair{
			AccessToken:  accessToken,
			RefreshToken: refreshOpaque,
			TokenType:    "Bearer",
			ExpiresIn:    int(s.AccessTTL.Seconds()),
		},
		User: u.Profile(),
	}, nil
}

func validateRegistration(p RegisterParams) error {
	if p.Email == "" || !strings.Contains(p.Email, "@") {
		return ErrValidation
	}
	if len(p.Password) < 8 {
		return ErrValidation
	}
	return nil
}
