package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/portfolio-cms/apiserver/internal/auth"
	"github.com/portfolio-cms/apiserver/internal/store"
	"github.com/portfolio-cms/apiserver/types"
	"github.com/rs/zerolog"
)

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong
	// password. The two cases are indistinguishable to callers.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidRefreshToken covers every refresh failure: bad signature,
	// expiry, revocation and replay.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

const adminUsername = "admin"

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByRefreshTokenHash(ctx context.Context, hash string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	SetRefreshTokenHash(ctx context.Context, id int, hash string) error
	RotateRefreshTokenHash(ctx context.Context, id int, oldHash, newHash string) error
	ClearRefreshTokenHash(ctx context.Context, id int) error
	UpdatePasswordHash(ctx context.Context, id int, hash string) error
}

// TokenPair is an access token with its companion refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	TokenPair
	User types.User `json:"user"`
}

// AuthService implements login, refresh rotation and logout for the admin
// account.
type AuthService struct {
	users  UserRepository
	tokens *auth.TokenManager
	logger zerolog.Logger
}

func NewAuthService(users UserRepository, tokens *auth.TokenManager, logger zerolog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		logger: logger.With().Str("component", "auth").Logger(),
	}
}

// Login checks the credentials and stores the hash of a fresh refresh
// token, replacing any token issued before.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Spend the same bcrypt time as a real comparison.
			auth.CheckPassword("", password)
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("load user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		s.logger.Warn().Int("user_id", user.ID).Msg("login rejected")
		return LoginResult{}, ErrInvalidCredentials
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.users.SetRefreshTokenHash(ctx, user.ID, auth.HashToken(pair.RefreshToken)); err != nil {
		return LoginResult{}, fmt.Errorf("store refresh token: %w", err)
	}

	s.logger.Info().Int("user_id", user.ID).Msg("login")
	return LoginResult{TokenPair: pair, User: user}, nil
}

// Refresh redeems a refresh token for a new pair. Each refresh token can be
// redeemed once; the stored hash is swapped atomically.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	userID, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return TokenPair{}, ErrInvalidRefreshToken
	}

	oldHash := auth.HashToken(refreshToken)
	owner, err := s.users.GetByRefreshTokenHash(ctx, oldHash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Warn().Int("user_id", userID).Msg("refresh token not recognized")
			return TokenPair{}, ErrInvalidRefreshToken
		}
		return TokenPair{}, fmt.Errorf("load refresh token owner: %w", err)
	}
	if owner.ID != userID {
		return TokenPair{}, ErrInvalidRefreshToken
	}

	pair, err := s.issuePair(owner)
	if err != nil {
		return TokenPair{}, err
	}
	err = s.users.RotateRefreshTokenHash(ctx, owner.ID, oldHash, auth.HashToken(pair.RefreshToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return TokenPair{}, ErrInvalidRefreshToken
		}
		return TokenPair{}, fmt.Errorf("rotate refresh token: %w", err)
	}
	return pair, nil
}

// Logout revokes the caller's refresh token. Logging out twice is not an
// error.
func (s *AuthService) Logout(ctx context.Context, userID int) error {
	err := s.users.ClearRefreshTokenHash(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// Me loads the authenticated user. A token whose user no longer exists is
// treated as invalid.
func (s *AuthService) Me(ctx context.Context, userID int) (types.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, auth.ErrInvalidToken
		}
		return types.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// Bootstrap creates the admin account unless one with the email exists.
// The returned bool reports whether a user was created.
func (s *AuthService) Bootstrap(ctx context.Context, email, password string) (types.User, bool, error) {
	email = normalizeEmail(email)
	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, false, fmt.Errorf("load user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return types.User{}, false, err
	}
	user, err := s.users.Create(ctx, types.User{
		Username:     adminUsername,
		Email:        email,
		Role:         string(auth.RoleAdmin),
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			existing, getErr := s.users.GetByEmail(ctx, email)
			return existing, false, getErr
		}
		return types.User{}, false, fmt.Errorf("create admin: %w", err)
	}

	s.logger.Info().Int("user_id", user.ID).Str("email", user.Email).Msg("admin user created")
	return user, true, nil
}

// ResetPassword replaces a user's password and revokes their refresh token.
func (s *AuthService) ResetPassword(ctx context.Context, email, password string) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.logger.Info().Int("user_id", user.ID).Msg("password reset")
	return nil
}

func (s *AuthService) issuePair(user types.User) (TokenPair, error) {
	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
