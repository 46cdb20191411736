package repositories

import (
	"context"

	"volunteerhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// passwordResetRepository implements PasswordResetRepository interface
type passwordResetRepository struct {
	db *gorm.DB
}

// NewPasswordResetRepository creates a new password reset repository
func NewPasswordResetRepository(db *gorm.DB) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

// Replace deletes any prior reset record for the email and stores the new
// one, so at most one live code exists per email
func (r *passwordResetRepository) Replace(ctx context.Context, reset *models.PasswordReset) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", reset.Email).Delete(&models.PasswordReset{}).Error; err != nil {
			return err
		}
		return tx.Create(reset).Error
	})
}

// GetByEmail gets the reset record for an email
func (r *passwordResetRepository) GetByEmail(ctx context.Context, email string) (*models.PasswordReset, error) {
	var reset models.PasswordReset
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&reset).Error
	if err != nil {
		return nil, err
	}
	return &reset, nil
}

// IncrementAttempts bumps the failed-attempt counter
func (r *passwordResetRepository) IncrementAttempts(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.PasswordReset{}).
		Where("id = ?", id).
		Update("attempts", gorm.Expr("attempts + 1")).Error
}

// Consume marks the record used iff it is still unconsumed. The conditional
// update makes the consume-exactly-once guarantee hold across instances.
func (r *passwordResetRepository) Consume(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.PasswordReset{}).
		Where("id = ? AND consumed = ?", id, false).
		Update("consumed", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
