package handlers

import (
	"volunteerhub/internal/adapters/http/middleware"
	"volunteerhub/internal/core/domain"
	"volunteerhub/internal/core/services"
	"volunteerhub/internal/pkg/pagination"
	"volunteerhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// VolunteerHandler handles volunteer application endpoints
type VolunteerHandler struct {
	volunteerService *services.VolunteerService
}

// NewVolunteerHandler creates a new volunteer handler
func NewVolunteerHandler(volunteerService *services.VolunteerService) *VolunteerHandler {
	return &VolunteerHandler{volunteerService: volunteerService}
}

// RejectRequest represents rejection request body
type RejectRequest struct {
	Reason string `json:"reason"`
}

// Apply handles a public volunteer application
// @Summary Apply as volunteer
// @Description File a volunteer application; one pending application per email
// @Tags Volunteers
// @Accept json
// @Produce json
// @Param body body services.ApplyInput true "Application data"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /volunteers/apply [post]
func (h *VolunteerHandler) Apply(c *fiber.Ctx) error {
	var input services.ApplyInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid request body")
	}

	app, err := h.volunteerService.Apply(c.Context(), &input)
	if err != nil {
		return respondError(c, err)
	}

	return response.Created(c, "Application submitted successfully", app)
}

// Pending lists pending applications
// @Summary List pending applications
// @Tags Volunteers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /volunteers/pending [get]
func (h *VolunteerHandler) Pending(c *fiber.Ctx) error {
	return h.list(c, string(domain.ApplicationPending))
}

// List lists applications with optional ?status= filter
// @Summary List applications
// @Tags Volunteers
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Success 200 {object} response.Response
// @Router /volunteers [get]
func (h *VolunteerHandler) List(c *fiber.Ctx) error {
	return h.list(c, c.Query("status"))
}

func (h *VolunteerHandler) list(c *fiber.Ctx, status string) error {
	actor := middleware.CurrentActor(c)
	params := pagination.GetParams(c)

	apps, total, err := h.volunteerService.List(c.Context(), actor, status, params.Offset, params.Limit)
	if err != nil {
		return respondError(c, err)
	}

	return response.Success(c, "Applications retrieved successfully", fiber.Map{
		"applications": apps,
		"meta":         pagination.GetMeta(params, total),
	})
}

// Approve approves a pending application
// @Summary Approve application
// @Description Approve a pending application and create the volunteer user
// @Tags Volunteers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /volunteers/{id}/approve [post]
func (h *VolunteerHandler) Approve(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid application id")
	}

	app, svcErr := h.volunteerService.Approve(c.Context(), middleware.CurrentActor(c), uint(id))
	if svcErr != nil {
		return respondError(c, svcErr)
	}

	return response.Success(c, "Application approved", app)
}

// Reject rejects a pending application with a reason
// @Summary Reject application
// @Tags Volunteers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param body body RejectRequest true "Rejection reason"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /volunteers/{id}/reject [post]
func (h *VolunteerHandler) Reject(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid application id")
	}

	var req RejectRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid request body")
	}

	app, svcErr := h.volunteerService.Reject(c.Context(), middleware.CurrentActor(c), uint(id), req.Reason)
	if svcErr != nil {
		return respondError(c, svcErr)
	}

	return response.Success(c, "Application rejected", app)
}

// Complete marks an approved engagement as finished
// @Summary Complete engagement
// @Tags Volunteers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /volunteers/{id}/complete [post]
func (h *VolunteerHandler) Complete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid application id")
	}

	app, svcErr := h.volunteerService.Complete(c.Context(), middleware.CurrentActor(c), uint(id))
	if svcErr != nil {
		return respondError(c, svcErr)
	}

	return response.Success(c, "Engagement completed", app)
}

// Invite creates a volunteer directly, bypassing the pending state
// @Summary Invite volunteer
// @Tags Volunteers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.InviteInput true "Invite data"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /volunteers/invite [post]
func (h *VolunteerHandler) Invite(c *fiber.Ctx) error {
	var input services.InviteInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid request body")
	}

	app, err := h.volunteerService.Invite(c.Context(), middleware.CurrentActor(c), &input)
	if err != nil {
		return respondError(c, err)
	}

	return response.Created(c, "Volunteer invited successfully", app)
}

// Delete hard deletes an application from any state
// @Summary Delete application
// @Tags Volunteers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Success 200 {object} response.Response
// @Router /volunteers/{id} [delete]
func (h *VolunteerHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid application id")
	}

	if err := h.volunteerService.Delete(c.Context(), middleware.CurrentActor(c), uint(id)); err != nil {
		return respondError(c, err)
	}

	return response.Success(c, "Application deleted", nil)
}
