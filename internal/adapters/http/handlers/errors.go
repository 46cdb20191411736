package handlers

import (
	"errors"
	"log"

	"volunteerhub/internal/core/domain"
	"volunteerhub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// respondError maps a domain error to its HTTP status, carrying the stable
// machine-readable code alongside the message. Anything outside the
// taxonomy is a 500 with the detail kept out of the response.
func respondError(c *fiber.Ctx, err error) error {
	code := domain.ErrorCode(err)

	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return response.Unauthorized(c, code, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		return response.Unauthorized(c, code, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return response.Forbidden(c, code, err.Error())
	case errors.Is(err, domain.ErrAccountLocked):
		return response.Locked(c, code, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, code, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrPendingExists),
		errors.Is(err, domain.ErrEmailTaken):
		return response.Conflict(c, code, err.Error())
	case errors.Is(err, domain.ErrOTPNotFound),
		errors.Is(err, domain.ErrOTPExpired),
		errors.Is(err, domain.ErrOTPInvalid),
		errors.Is(err, domain.ErrWeakPassword),
		errors.Is(err, domain.ErrReasonRequired),
		errors.Is(err, domain.ErrSubmissionRequired),
		errors.Is(err, domain.ErrInvalidInput):
		return response.BadRequest(c, code, err.Error())
	}

	log.Printf("❌ Unexpected error on %s %s: %v", c.Method(), c.Path(), err)
	return response.InternalServerError(c, "Something went wrong")
}
