package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"volunteerhub/internal/adapters/persistence/models"
	"volunteerhub/internal/adapters/persistence/repositories"
	"volunteerhub/internal/config"
	"volunteerhub/internal/core/domain"
	"volunteerhub/internal/pkg/password"
	"volunteerhub/internal/pkg/token"

	"gorm.io/gorm"
)

// AuthService handles authentication and session lifecycle.
// Sessions are opaque bearer tokens: the raw token goes to the client,
// only its SHA256 hash is stored, and validation is a server-side lookup
// so logout and password changes revoke immediately.
type AuthService struct {
	userRepo    repositories.UserRepository
	sessionRepo repositories.SessionRepository
	cfg         *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	sessionRepo repositories.SessionRepository,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		cfg:         cfg,
	}
}

// LoginInput represents login input
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User  *models.UserResponse `json:"user"`
	Token string               `json:"token"`
}

// Login authenticates a user and issues a session.
// Three consecutive failures inside the rolling window lock the account;
// a locked account rejects even the correct password until the lock
// expires. Success clears the failure counters.
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	email := NormalizeEmail(input.Email)

	// 1. Find user by email
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Disabled accounts look identical to bad credentials
	if !user.IsActive {
		return nil, domain.ErrInvalidCredentials
	}

	// 3. Lockout check comes before password verification
	now := time.Now()
	if user.IsLocked(now) {
		return nil, domain.ErrAccountLocked
	}

	// 4. Verify password
	if !password.Verify(input.Password, user.Password) {
		return nil, s.registerFailedLogin(ctx, user, now)
	}

	// 5. Clear failure counters from earlier attempts
	if user.FailedLoginCount > 0 || user.LockedUntil != nil {
		if err := s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{
			"failed_login_count": 0,
			"last_failed_at":     nil,
			"locked_until":       nil,
		}); err != nil {
			return nil, err
		}
	}

	// 6. Issue session
	raw, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ User logged in: %s", user.Email)

	return &AuthResponse{
		User:  user.ToResponse(),
		Token: raw,
	}, nil
}

// registerFailedLogin bumps the consecutive-failure counter and locks the
// account when the threshold is hit inside the rolling window
func (s *AuthService) registerFailedLogin(ctx context.Context, user *models.User, now time.Time) error {
	window := time.Duration(s.cfg.Auth.LockoutWindowMins) * time.Minute

	count := user.FailedLoginCount + 1
	if user.LastFailedAt != nil && now.Sub(*user.LastFailedAt) > window {
		// previous failure fell out of the window, start over
		count = 1
	}

	fields := map[string]interface{}{
		"failed_login_count": count,
		"last_failed_at":     now,
	}

	locked := count >= s.cfg.Auth.LockoutThreshold
	if locked {
		until := now.Add(time.Duration(s.cfg.Auth.LockoutMins) * time.Minute)
		fields["locked_until"] = until
		log.Printf("🔒 Account locked until %s: %s", until.Format(time.RFC3339), user.Email)
	}

	if err := s.userRepo.UpdateFields(ctx, user.ID, fields); err != nil {
		return err
	}

	if locked {
		return domain.ErrAccountLocked
	}
	return domain.ErrInvalidCredentials
}

// issueSession stores a new session and returns the raw bearer token
func (s *AuthService) issueSession(ctx context.Context, user *models.User) (string, error) {
	raw, err := token.Generate()
	if err != nil {
		return "", err
	}

	session := &models.Session{
		UserID:       user.ID,
		TokenHash:    token.Hash(raw),
		RoleSnapshot: user.Role,
		ExpiresAt:    time.Now().Add(time.Duration(s.cfg.Auth.SessionTTLHours) * time.Hour),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return "", err
	}

	return raw, nil
}

// Validate resolves a bearer token to its user. The returned user carries
// the role snapshot taken at session issuance: a role change mid-session
// does not retroactively apply, staleness is bounded by the session TTL.
func (s *AuthService) Validate(ctx context.Context, raw string) (*models.User, error) {
	if raw == "" {
		return nil, domain.ErrUnauthenticated
	}

	session, err := s.sessionRepo.GetByTokenHash(ctx, token.Hash(raw))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}

	if session.IsRevoked() || session.IsExpired() {
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}
	if !user.IsActive {
		return nil, domain.ErrUnauthenticated
	}

	user.Role = session.RoleSnapshot
	return user, nil
}

// Logout revokes the session. Idempotent: an unknown or already revoked
// token is still a successful logout.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	if err := s.sessionRepo.RevokeByTokenHash(ctx, token.Hash(raw)); err != nil {
		return err
	}
	log.Printf("✅ User logged out")
	return nil
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// ChangePassword verifies the current password, stores the new hash,
// clears the first-login flag, and revokes every session for the user.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, input *ChangePasswordInput) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return err
	}

	if !password.Verify(input.CurrentPassword, user.Password) {
		return domain.ErrInvalidCredentials
	}

	if !password.ValidatePolicy(input.NewPassword) {
		return domain.ErrWeakPassword
	}

	hashed, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{
		"password":       hashed,
		"is_first_login": false,
	}); err != nil {
		return err
	}

	// password change invalidates every existing session
	if err := s.sessionRepo.RevokeAllByUserID(ctx, user.ID); err != nil {
		return err
	}

	log.Printf("✅ Password changed for user: %s", user.Email)
	return nil
}

// NormalizeEmail lowercases and trims an email; uniqueness is
// case-insensitive throughout the portal
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
