package repositories

import (
	"context"

	"volunteerhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// taskRepository implements TaskRepository interface
type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

// Create creates a new task
func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// GetByID gets a task by ID
func (r *taskRepository) GetByID(ctx context.Context, id uint) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// ListByAssignee lists tasks assigned to a user with pagination
func (r *taskRepository) ListByAssignee(ctx context.Context, userID uint, offset, limit int) ([]*models.Task, int64, error) {
	var tasks []*models.Task
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Task{}).Where("assigned_to = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Offset(offset).Limit(limit).Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// List lists all tasks with pagination
func (r *taskRepository) List(ctx context.Context, offset, limit int) ([]*models.Task, int64, error) {
	var tasks []*models.Task
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Task{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).Offset(offset).Limit(limit).Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// UpdateFields updates task metadata columns unconditionally
func (r *taskRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", id).Updates(fields).Error
}

// UpdateStatusIf applies the patch iff the stored status matches expected.
// A submit racing a delete affects zero rows and fails cleanly instead of
// resurrecting the task.
func (r *taskRepository) UpdateStatusIf(ctx context.Context, id uint, expected string, patch map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(patch)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Delete hard deletes a task
func (r *taskRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Task{}, id).Error
}
