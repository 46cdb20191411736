package services

import (
	"context"
	"errors"
	"log"
	"time"

	"volunteerhub/internal/adapters/persistence/models"
	"volunteerhub/internal/adapters/persistence/repositories"
	"volunteerhub/internal/config"
	"volunteerhub/internal/core/domain"
	"volunteerhub/internal/pkg/password"
	"volunteerhub/internal/pkg/token"

	"gorm.io/gorm"
)

// maxOTPAttempts caps wrong-code guesses per issued code
const maxOTPAttempts = 5

// otpLength is the number of digits in a reset code
const otpLength = 6

// RecoveryService drives the three-step password recovery protocol:
// request a code, verify it, then reset. Verify leaves the record
// untouched so the subsequent reset can re-validate it; only reset
// consumes. Expiry is checked lazily, there is no sweeper.
type RecoveryService struct {
	userRepo    repositories.UserRepository
	resetRepo   repositories.PasswordResetRepository
	sessionRepo repositories.SessionRepository
	notifier    Notifier
	cfg         *config.Config
}

// NewRecoveryService creates a new password recovery service
func NewRecoveryService(
	userRepo repositories.UserRepository,
	resetRepo repositories.PasswordResetRepository,
	sessionRepo repositories.SessionRepository,
	notifier Notifier,
	cfg *config.Config,
) *RecoveryService {
	return &RecoveryService{
		userRepo:    userRepo,
		resetRepo:   resetRepo,
		sessionRepo: sessionRepo,
		notifier:    notifier,
		cfg:         cfg,
	}
}

// Request issues a reset code for the email and mails it. Unknown emails
// still report success so the endpoint cannot be used to enumerate users.
// Repeat requests replace the previous code; throttling is the client's
// concern, repeating is never an error here.
func (s *RecoveryService) Request(ctx context.Context, email string) error {
	email = NormalizeEmail(email)

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("🔍 Password reset requested for unknown email")
			return nil
		}
		return err
	}
	if !user.IsActive {
		return nil
	}

	code, err := token.GenerateOTP(otpLength)
	if err != nil {
		return err
	}

	expiresAt := time.Now().Add(time.Duration(s.cfg.Auth.OTPTTLMins) * time.Minute)
	reset := &models.PasswordReset{
		Email:     email,
		CodeHash:  token.Hash(code),
		ExpiresAt: expiresAt,
	}

	if err := s.resetRepo.Replace(ctx, reset); err != nil {
		return err
	}

	s.notifier.Send(TemplatePasswordResetOTP, email, map[string]interface{}{
		"name":            user.Name,
		"code":            code,
		"expires_minutes": s.cfg.Auth.OTPTTLMins,
	})

	log.Printf("✅ Password reset code issued for %s", email)
	return nil
}

// Verify checks a reset code without consuming it, so the follow-up reset
// call can re-validate the same record
func (s *RecoveryService) Verify(ctx context.Context, email, code string) error {
	email = NormalizeEmail(email)

	reset, err := s.getReset(ctx, email)
	if err != nil {
		return err
	}

	return s.checkCode(ctx, reset, code)
}

// Reset re-validates the code, consumes it exactly once, stores the new
// password hash, revokes every session for the user, and clears any
// lockout state so the user can log in immediately.
func (s *RecoveryService) Reset(ctx context.Context, email, code, newPassword string) error {
	email = NormalizeEmail(email)

	reset, err := s.getReset(ctx, email)
	if err != nil {
		return err
	}

	if err := s.checkCode(ctx, reset, code); err != nil {
		return err
	}

	// policy check before consuming, a weak password must not burn the code
	if !password.ValidatePolicy(newPassword) {
		return domain.ErrWeakPassword
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrOTPNotFound
		}
		return err
	}

	// conditional update: a concurrent reset with the same code loses here
	consumed, err := s.resetRepo.Consume(ctx, reset.ID)
	if err != nil {
		return err
	}
	if !consumed {
		return domain.ErrOTPInvalid
	}

	hashed, err := password.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{
		"password":           hashed,
		"is_first_login":     false,
		"failed_login_count": 0,
		"last_failed_at":     nil,
		"locked_until":       nil,
	}); err != nil {
		return err
	}

	if err := s.sessionRepo.RevokeAllByUserID(ctx, user.ID); err != nil {
		return err
	}

	log.Printf("✅ Password reset completed for %s", email)
	return nil
}

func (s *RecoveryService) getReset(ctx context.Context, email string) (*models.PasswordReset, error) {
	reset, err := s.resetRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOTPNotFound
		}
		return nil, err
	}
	return reset, nil
}

// checkCode validates a reset record against a submitted code without
// consuming it. Wrong codes count against the attempt cap.
func (s *RecoveryService) checkCode(ctx context.Context, reset *models.PasswordReset, code string) error {
	if reset.IsExpired(time.Now()) {
		return domain.ErrOTPExpired
	}
	if reset.Consumed {
		return domain.ErrOTPInvalid
	}
	if reset.Attempts >= maxOTPAttempts {
		return domain.ErrOTPInvalid
	}
	if reset.CodeHash != token.Hash(code) {
		if err := s.resetRepo.IncrementAttempts(ctx, reset.ID); err != nil {
			return err
		}
		return domain.ErrOTPInvalid
	}
	return nil
}
