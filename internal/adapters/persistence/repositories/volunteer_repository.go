package repositories

import (
	"context"

	"volunteerhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// volunteerRepository implements VolunteerRepository interface
type volunteerRepository struct {
	db *gorm.DB
}

// NewVolunteerRepository creates a new volunteer application repository
func NewVolunteerRepository(db *gorm.DB) VolunteerRepository {
	return &volunteerRepository{db: db}
}

// Create creates a new volunteer application
func (r *volunteerRepository) Create(ctx context.Context, app *models.VolunteerApplication) error {
	return r.db.WithContext(ctx).Create(app).Error
}

// GetByID gets an application by ID
func (r *volunteerRepository) GetByID(ctx context.Context, id uint) (*models.VolunteerApplication, error) {
	var app models.VolunteerApplication
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// HasPendingByEmail checks the one-pending-application-per-email invariant
func (r *volunteerRepository) HasPendingByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.VolunteerApplication{}).
		Where("email = ? AND status = ?", email, "pending").
		Count(&count).Error
	return count > 0, err
}

// HasEarlierPendingByEmail reports whether a pending application with a
// smaller id exists for the email
func (r *volunteerRepository) HasEarlierPendingByEmail(ctx context.Context, email string, beforeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.VolunteerApplication{}).
		Where("email = ? AND status = ? AND id < ?", email, "pending", beforeID).
		Count(&count).Error
	return count > 0, err
}

// List lists applications with optional status filter and pagination
func (r *volunteerRepository) List(ctx context.Context, status string, offset, limit int) ([]*models.VolunteerApplication, int64, error) {
	var apps []*models.VolunteerApplication
	var total int64

	query := r.db.WithContext(ctx).Model(&models.VolunteerApplication{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Offset(offset).Limit(limit).Order("created_at DESC").Find(&apps).Error; err != nil {
		return nil, 0, err
	}

	return apps, total, nil
}

// UpdateStatusIf applies the patch iff the stored status matches expected.
// The WHERE clause on status makes the update a compare-and-set; a lost
// race shows up as zero affected rows, never as a silent overwrite.
func (r *volunteerRepository) UpdateStatusIf(ctx context.Context, id uint, expected string, patch map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.VolunteerApplication{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(patch)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Delete hard deletes an application
func (r *volunteerRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.VolunteerApplication{}, id).Error
}
