package repositories

import (
	"context"

	"volunteerhub/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByEmailUnscoped also finds soft-deleted users, for reactivation
	GetByEmailUnscoped(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	Restore(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, role string, offset, limit int) ([]*models.User, int64, error)
}

// SessionRepository defines session repository interface
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) error
}

// PasswordResetRepository defines password reset (OTP) repository interface
type PasswordResetRepository interface {
	// Replace deletes any prior record for the email and stores the new one
	Replace(ctx context.Context, reset *models.PasswordReset) error
	GetByEmail(ctx context.Context, email string) (*models.PasswordReset, error)
	IncrementAttempts(ctx context.Context, id uint) error
	// Consume marks the record used iff it is still unconsumed;
	// reports false when another request consumed it first
	Consume(ctx context.Context, id uint) (bool, error)
}

// VolunteerRepository defines volunteer application repository interface
type VolunteerRepository interface {
	Create(ctx context.Context, app *models.VolunteerApplication) error
	GetByID(ctx context.Context, id uint) (*models.VolunteerApplication, error)
	HasPendingByEmail(ctx context.Context, email string) (bool, error)
	// HasEarlierPendingByEmail reports whether a pending application with
	// a smaller id exists for the email; the apply path uses it to back
	// out the loser of a concurrent double-apply
	HasEarlierPendingByEmail(ctx context.Context, email string, beforeID uint) (bool, error)
	List(ctx context.Context, status string, offset, limit int) ([]*models.VolunteerApplication, int64, error)
	// UpdateStatusIf applies the patch iff the stored status matches expected.
	// Reports false when the row was missing or another writer won the race.
	UpdateStatusIf(ctx context.Context, id uint, expected string, patch map[string]interface{}) (bool, error)
	Delete(ctx context.Context, id uint) error
}

// TaskRepository defines task repository interface
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id uint) (*models.Task, error)
	ListByAssignee(ctx context.Context, userID uint, offset, limit int) ([]*models.Task, int64, error)
	List(ctx context.Context, offset, limit int) ([]*models.Task, int64, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	// UpdateStatusIf applies the patch iff the stored status matches expected.
	// Reports false when the row was missing or another writer won the race.
	UpdateStatusIf(ctx context.Context, id uint, expected string, patch map[string]interface{}) (bool, error)
	Delete(ctx context.Context, id uint) error
}
