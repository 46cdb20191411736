package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"volunteerhub/internal/adapters/persistence/models"
	"volunteerhub/internal/adapters/persistence/repositories"
	"volunteerhub/internal/core/domain"

	"gorm.io/gorm"
)

// TaskService drives the task lifecycle: pending -> submitted ->
// completed, with reject sending a submitted task back to pending for
// rework rather than dead-ending it. All transitions are compare-and-set
// on the prior status.
type TaskService struct {
	taskRepo repositories.TaskRepository
	userRepo repositories.UserRepository
	notifier Notifier
}

// NewTaskService creates a new task service
func NewTaskService(
	taskRepo repositories.TaskRepository,
	userRepo repositories.UserRepository,
	notifier Notifier,
) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		notifier: notifier,
	}
}

// CreateTaskInput represents task creation input
type CreateTaskInput struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Priority    string     `json:"priority"`
	AssignedTo  uint       `json:"assignedTo" validate:"required"`
}

// UpdateTaskInput represents task metadata updates
type UpdateTaskInput struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Priority    *string    `json:"priority"`
	AssignedTo  *uint      `json:"assignedTo"`
}

// Create creates a task assigned to an existing active user
func (s *TaskService) Create(ctx context.Context, actor domain.Actor, input *CreateTaskInput) (*models.Task, error) {
	if !domain.Authorize(actor, domain.PermManageTaskAssignment) {
		return nil, domain.ErrForbidden
	}
	if strings.TrimSpace(input.Title) == "" || input.AssignedTo == 0 {
		return nil, domain.ErrInvalidInput
	}

	priority := domain.TaskPriority(input.Priority)
	if input.Priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.IsValid() {
		return nil, domain.ErrInvalidInput
	}

	assignee, err := s.userRepo.GetByID(ctx, input.AssignedTo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if !assignee.IsActive {
		return nil, domain.ErrInvalidInput
	}

	task := &models.Task{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		DueDate:     input.DueDate,
		Priority:    string(priority),
		AssignedTo:  assignee.ID,
		AssignedBy:  actor.UserID,
		Status:      string(domain.TaskPending),
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}

	s.notifier.Send(TemplateTaskAssigned, assignee.Email, map[string]interface{}{
		"name":     assignee.Name,
		"title":    task.Title,
		"due_date": task.DueDate,
		"priority": task.Priority,
	})

	log.Printf("✅ Task #%d assigned to user %d by user %d", task.ID, task.AssignedTo, actor.UserID)
	return task, nil
}

// List lists tasks. Assignees may list their own; anything wider needs
// the task assignment capability.
func (s *TaskService) List(ctx context.Context, actor domain.Actor, userID uint, offset, limit int) ([]*models.Task, int64, error) {
	if userID != 0 && userID == actor.UserID {
		return s.taskRepo.ListByAssignee(ctx, userID, offset, limit)
	}
	if !domain.Authorize(actor, domain.PermManageTaskAssignment) {
		return nil, 0, domain.ErrForbidden
	}
	if userID != 0 {
		return s.taskRepo.ListByAssignee(ctx, userID, offset, limit)
	}
	return s.taskRepo.List(ctx, offset, limit)
}

// Get returns a single task, visible to its assignee or a reviewer
func (s *TaskService) Get(ctx context.Context, actor domain.Actor, id uint) (*models.Task, error) {
	task, err := s.getTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.AssignedTo != actor.UserID && !domain.Authorize(actor, domain.PermManageTaskAssignment) {
		return nil, domain.ErrForbidden
	}
	return task, nil
}

// Submit moves a pending task to submitted. Only the assignee may submit,
// and details are required. A submit racing a delete fails cleanly.
func (s *TaskService) Submit(ctx context.Context, actor domain.Actor, id uint, details string) (*models.Task, error) {
	task, err := s.getTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.AssignedTo != actor.UserID {
		return nil, domain.ErrForbidden
	}
	if strings.TrimSpace(details) == "" {
		return nil, domain.ErrSubmissionRequired
	}

	switch domain.TaskStatus(task.Status) {
	case domain.TaskSubmitted:
		return task, nil
	case domain.TaskCompleted, domain.TaskRejected:
		return nil, domain.ErrInvalidTransition
	}

	now := time.Now()
	won, err := s.taskRepo.UpdateStatusIf(ctx, task.ID, string(domain.TaskPending), map[string]interface{}{
		"status":             string(domain.TaskSubmitted),
		"submission_details": details,
		"submitted_at":       now,
	})
	if err != nil {
		return nil, err
	}
	if !won {
		return s.reconcile(ctx, id, domain.TaskSubmitted)
	}

	s.notifyReviewer(ctx, task.AssignedBy, TemplateTaskSubmitted, map[string]interface{}{
		"title":   task.Title,
		"details": details,
	})

	task.Status = string(domain.TaskSubmitted)
	task.SubmissionDetails = details
	task.SubmittedAt = &now

	log.Printf("✅ Task #%d submitted by user %d", task.ID, actor.UserID)
	return task, nil
}

// Approve moves a submitted task to completed
func (s *TaskService) Approve(ctx context.Context, actor domain.Actor, id uint) (*models.Task, error) {
	if !domain.Authorize(actor, domain.PermManageTaskAssignment) {
		return nil, domain.ErrForbidden
	}

	task, err := s.getTask(ctx, id)
	if err != nil {
		return nil, err
	}

	switch domain.TaskStatus(task.Status) {
	case domain.TaskCompleted:
		return task, nil
	case domain.TaskPending, domain.TaskRejected:
		return nil, domain.ErrInvalidTransition
	}

	now := time.Now()
	won, err := s.taskRepo.UpdateStatusIf(ctx, task.ID, string(domain.TaskSubmitted), map[string]interface{}{
		"status":      string(domain.TaskCompleted),
		"reviewed_by": actor.UserID,
		"reviewed_at": now,
	})
	if err != nil {
		return nil, err
	}
	if !won {
		return s.reconcile(ctx, id, domain.TaskCompleted)
	}

	s.notifyAssignee(ctx, task.AssignedTo, TemplateTaskApproved, map[string]interface{}{
		"title": task.Title,
	})

	task.Status = string(domain.TaskCompleted)
	task.ReviewedBy = &actor.UserID
	task.ReviewedAt = &now

	log.Printf("✅ Task #%d approved by user %d", task.ID, actor.UserID)
	return task, nil
}

// Reject sends a submitted task back to pending for rework. This is not a
// terminal rejection: the assignee may fix and resubmit. The submitted
// details travel in the notification and are cleared from the task.
func (s *TaskService) Reject(ctx context.Context, actor domain.Actor, id uint) (*models.Task, error) {
	if !domain.Authorize(actor, domain.PermManageTaskAssignment) {
		return nil, domain.ErrForbidden
	}

	task, err := s.getTask(ctx, id)
	if err != nil {
		return nil, err
	}

	switch domain.TaskStatus(task.Status) {
	case domain.TaskPending:
		return task, nil
	case domain.TaskCompleted, domain.TaskRejected:
		return nil, domain.ErrInvalidTransition
	}

	now := time.Now()
	won, err := s.taskRepo.UpdateStatusIf(ctx, task.ID, string(domain.TaskSubmitted), map[string]interface{}{
		"status":             string(domain.TaskPending),
		"submission_details": "",
		"submitted_at":       nil,
		"reviewed_by":        actor.UserID,
		"reviewed_at":        now,
	})
	if err != nil {
		return nil, err
	}
	if !won {
		return s.reconcile(ctx, id, domain.TaskPending)
	}

	s.notifyAssignee(ctx, task.AssignedTo, TemplateTaskRejected, map[string]interface{}{
		"title":   task.Title,
		"details": task.SubmissionDetails,
	})

	task.Status = string(domain.TaskPending)
	task.SubmissionDetails = ""
	task.SubmittedAt = nil
	task.ReviewedBy = &actor.UserID
	task.ReviewedAt = &now

	log.Printf("✅ Task #%d sent back for rework by user %d", task.ID, actor.UserID)
	return task, nil
}

// Update edits task metadata without touching the lifecycle
func (s *TaskService) Update(ctx context.Context, actor domain.Actor, id uint, input *UpdateTaskInput) (*models.Task, error) {
	if !domain.Authorize(actor, domain.PermManageTaskAssignment) {
		return nil, domain.ErrForbidden
	}

	task, err := s.getTask(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, domain.ErrInvalidInput
		}
		fields["title"] = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		fields["description"] = *input.Description
	}
	if input.DueDate != nil {
		fields["due_date"] = *input.DueDate
	}
	if input.Priority != nil {
		if !domain.TaskPriority(*input.Priority).IsValid() {
			return nil, domain.ErrInvalidInput
		}
		fields["priority"] = *input.Priority
	}
	if input.AssignedTo != nil {
		assignee, err := s.userRepo.GetByID(ctx, *input.AssignedTo)
		if err != nil {
			return nil, domain.ErrNotFound
		}
		fields["assigned_to"] = assignee.ID
	}

	if len(fields) == 0 {
		return task, nil
	}

	if err := s.taskRepo.UpdateFields(ctx, task.ID, fields); err != nil {
		return nil, err
	}

	return s.getTask(ctx, id)
}

// Delete removes a task from any state
func (s *TaskService) Delete(ctx context.Context, actor domain.Actor, id uint) error {
	if !domain.Authorize(actor, domain.PermManageTaskAssignment) {
		return domain.ErrForbidden
	}

	task, err := s.getTask(ctx, id)
	if err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, task.ID); err != nil {
		return err
	}

	log.Printf("✅ Task #%d deleted by user %d", id, actor.UserID)
	return nil
}

// reconcile handles a lost compare-and-set by re-reading once: success if
// the winner already reached the desired state, InvalidTransition (or
// NotFound after a racing delete) otherwise
func (s *TaskService) reconcile(ctx context.Context, id uint, desired domain.TaskStatus) (*models.Task, error) {
	task, err := s.getTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if domain.TaskStatus(task.Status) == desired {
		return task, nil
	}
	return nil, domain.ErrInvalidTransition
}

func (s *TaskService) getTask(ctx context.Context, id uint) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return task, nil
}

func (s *TaskService) notifyAssignee(ctx context.Context, userID uint, templateID string, payload map[string]interface{}) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return
	}
	payload["name"] = user.Name
	s.notifier.Send(templateID, user.Email, payload)
}

func (s *TaskService) notifyReviewer(ctx context.Context, userID uint, templateID string, payload map[string]interface{}) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return
	}
	payload["name"] = user.Name
	s.notifier.Send(templateID, user.Email, payload)
}
