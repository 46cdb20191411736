package handlers

import (
	"volunteerhub/internal/adapters/http/middleware"
	"volunteerhub/internal/core/services"
	"volunteerhub/internal/pkg/pagination"
	"volunteerhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles user management endpoints
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// SetPermissionsRequest represents permission grant request body
type SetPermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

// GetPermissions returns the actor's effective permission set
// @Summary Get own permissions
// @Description Admin screens call this to decide what to render
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /user/permissions [get]
func (h *UserHandler) GetPermissions(c *fiber.Ctx) error {
	actor := middleware.CurrentActor(c)

	return response.Success(c, "Permissions retrieved successfully", fiber.Map{
		"permissions": h.userService.GetPermissions(actor),
	})
}

// List lists users with optional ?role= filter
// @Summary List users
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param role query string false "Role filter"
// @Success 200 {object} response.Response
// @Router /users [get]
func (h *UserHandler) List(c *fiber.Ctx) error {
	actor := middleware.CurrentActor(c)
	params := pagination.GetParams(c)

	users, total, err := h.userService.ListUsers(c.Context(), actor, c.Query("role"), params.Offset, params.Limit)
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, "Users retrieved successfully", fiber.Map{
		"users": users,
		"meta":  pagination.GetMeta(params, total),
	})
}

// UpdateProfile updates the current user's profile
// @Summary Update own profile
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.UpdateProfileInput true "Profile data"
// @Success 200 {object} response.Response
// @Router /users/profile [put]
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return response.Unauthorized(c, "UNAUTHENTICATED", "Unauthorized")
	}

	var input services.UpdateProfileInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid request body")
	}

	updated, err := h.userService.UpdateProfile(c.Context(), user.ID, &input)
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, "Profile updated successfully", updated)
}

// SetPermissions replaces an admin user's permission set
// @Summary Set user permissions
// @Description Superadmin only; targets must hold the admin role
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body SetPermissionsRequest true "Permission set"
// @Success 200 {object} response.Response
// @Router /users/{id}/permissions [put]
func (h *UserHandler) SetPermissions(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid user id")
	}

	var req SetPermissionsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid request body")
	}

	updated, svcErr := h.userService.SetPermissions(c.Context(), middleware.CurrentActor(c), uint(id), req.Permissions)
	if svcErr != nil {
		return respondError(c, svcErr)
	}

	return response.Success(c, "Permissions updated successfully", updated)
}

// Deactivate soft-disables a user account
// @Summary Deactivate user
// @Description Admin accounts are disabled, never hard deleted
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Router /users/{id} [delete]
func (h *UserHandler) Deactivate(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid user id")
	}

	if err := h.userService.Deactivate(c.Context(), middleware.CurrentActor(c), uint(id)); err != nil {
		return respondError(c, err)
	}

	return response.Success(c, "User deactivated", nil)
}
