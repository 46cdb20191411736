package handlers

import (
	"strconv"
	"time"

	"volunteerhub/internal/adapters/http/middleware"
	"volunteerhub/internal/adapters/persistence/models"
	"volunteerhub/internal/core/domain"
	"volunteerhub/internal/core/services"
	"volunteerhub/internal/pkg/pagination"
	"volunteerhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// TaskHandler handles task endpoints
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// CreateTaskRequest represents task creation request body
type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Priority    string     `json:"priority"`
	AssignedTo  uint       `json:"assignedTo"`
}

// UpdateTaskRequest represents task update request body. A status field
// routes the request through the lifecycle; plain metadata fields are an
// edit. The two are separate operations with separate guards.
type UpdateTaskRequest struct {
	Status            *string    `json:"status"`
	SubmissionDetails string     `json:"submissionDetails"`
	Title             *string    `json:"title"`
	Description       *string    `json:"description"`
	DueDate           *time.Time `json:"dueDate"`
	Priority          *string    `json:"priority"`
	AssignedTo        *uint      `json:"assignedTo"`
}

// List lists tasks with optional ?userId= filter
// @Summary List tasks
// @Description Assignees list their own tasks; reviewers may list any
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Param userId query int false "Assignee filter"
// @Success 200 {object} response.Response
// @Router /tasks [get]
func (h *TaskHandler) List(c *fiber.Ctx) error {
	actor := middleware.CurrentActor(c)
	params := pagination.GetParams(c)

	var userID uint
	if v := c.Query("userId"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return response.BadRequest(c, "INVALID_INPUT", "Invalid userId")
		}
		userID = uint(parsed)
	}

	tasks, total, err := h.taskService.List(c.Context(), actor, userID, params.Offset, params.Limit)
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, "Tasks retrieved successfully", fiber.Map{
		"tasks": toTaskResponses(tasks),
		"meta":  pagination.GetMeta(params, total),
	})
}

// Create creates a task
// @Summary Create task
// @Tags Tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateTaskRequest true "Task data"
// @Success 201 {object} response.Response
// @Router /tasks [post]
func (h *TaskHandler) Create(c *fiber.Ctx) error {
	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid request body")
	}

	task, err := h.taskService.Create(c.Context(), middleware.CurrentActor(c), &services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		return respondError(c, err)
	}

	return response.Created(c, "Task created successfully", task.ToResponse())
}

// Get returns a single task
// @Summary Get task
// @Description Visible to the assignee or a reviewer
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Success 200 {object} response.Response
// @Router /tasks/{id} [get]
func (h *TaskHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid task id")
	}

	task, err := h.taskService.Get(c.Context(), middleware.CurrentActor(c), uint(id))
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, "Task retrieved successfully", task.ToResponse())
}

// Update edits a task or moves it through the lifecycle
// @Summary Update task
// @Description Status changes route through submit/approve/reject; other fields are a metadata edit
// @Tags Tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Param body body UpdateTaskRequest true "Update data"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /tasks/{id} [put]
func (h *TaskHandler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid task id")
	}

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid request body")
	}

	actor := middleware.CurrentActor(c)

	if req.Status != nil {
		task, svcErr := h.transition(c, actor, uint(id), domain.TaskStatus(*req.Status), req.SubmissionDetails)
		if svcErr != nil {
			return respondError(c, svcErr)
		}
		return response.Success(c, "Task updated successfully", task.ToResponse())
	}

	task, svcErr := h.taskService.Update(c.Context(), actor, uint(id), &services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		AssignedTo:  req.AssignedTo,
	})
	if svcErr != nil {
		return respondError(c, svcErr)
	}

	return response.Success(c, "Task updated successfully", task.ToResponse())
}

// transition dispatches a requested status to the matching lifecycle
// operation. A requested "rejected" sends the task back to pending; the
// terminal-looking value exists only for legacy clients.
func (h *TaskHandler) transition(c *fiber.Ctx, actor domain.Actor, id uint, status domain.TaskStatus, details string) (*models.Task, error) {
	switch status {
	case domain.TaskSubmitted:
		return h.taskService.Submit(c.Context(), actor, id, details)
	case domain.TaskCompleted:
		return h.taskService.Approve(c.Context(), actor, id)
	case domain.TaskPending, domain.TaskRejected:
		return h.taskService.Reject(c.Context(), actor, id)
	}
	return nil, domain.ErrInvalidInput
}

// Delete deletes a task from any state
// @Summary Delete task
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Task ID"
// @Success 200 {object} response.Response
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid task id")
	}

	if err := h.taskService.Delete(c.Context(), middleware.CurrentActor(c), uint(id)); err != nil {
		return respondError(c, err)
	}

	return response.Success(c, "Task deleted", nil)
}

func toTaskResponses(tasks []*models.Task) []*models.TaskResponse {
	out := make([]*models.TaskResponse, len(tasks))
	for i, t := range tasks {
		out[i] = t.ToResponse()
	}
	return out
}
