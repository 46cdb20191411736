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
	"volunteerhub/internal/pkg/password"

	"gorm.io/gorm"
)

// VolunteerService drives the volunteer application lifecycle:
// pending -> approved -> completed, pending -> rejected. Decisions are
// compare-and-set on the pending status so concurrent approvals can never
// overwrite each other or create two users.
type VolunteerService struct {
	volunteerRepo repositories.VolunteerRepository
	userRepo      repositories.UserRepository
	notifier      Notifier
}

// NewVolunteerService creates a new volunteer service
func NewVolunteerService(
	volunteerRepo repositories.VolunteerRepository,
	userRepo repositories.UserRepository,
	notifier Notifier,
) *VolunteerService {
	return &VolunteerService{
		volunteerRepo: volunteerRepo,
		userRepo:      userRepo,
		notifier:      notifier,
	}
}

// ApplyInput represents a public volunteer application
type ApplyInput struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone"`
	Skills       string `json:"skills"`
	Expertise    string `json:"expertise"`
	Availability string `json:"availability"`
	Motivation   string `json:"motivation"`
}

// InviteInput represents an admin invite
type InviteInput struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// Apply files a public volunteer application. At most one pending
// application may exist per email.
func (s *VolunteerService) Apply(ctx context.Context, input *ApplyInput) (*models.VolunteerApplication, error) {
	email := NormalizeEmail(input.Email)
	if input.Name == "" || email == "" {
		return nil, domain.ErrInvalidInput
	}

	pending, err := s.volunteerRepo.HasPendingByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, domain.ErrPendingExists
	}

	app := &models.VolunteerApplication{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		Phone:        strings.TrimSpace(input.Phone),
		Skills:       input.Skills,
		Expertise:    input.Expertise,
		Availability: input.Availability,
		Motivation:   input.Motivation,
		Status:       string(domain.ApplicationPending),
	}

	if err := s.volunteerRepo.Create(ctx, app); err != nil {
		return nil, err
	}

	// two racing applications can both pass the pre-check; re-check after
	// the insert and back out the newer row
	if err := s.backOutDuplicatePending(ctx, app); err != nil {
		return nil, err
	}

	log.Printf("✅ Volunteer application received: %s", email)
	return app, nil
}

// backOutDuplicatePending resolves a double-apply race. When an earlier
// pending application exists for the same email the newer row is removed
// and the apply reports the usual pending conflict. The smallest id
// stands, so concurrent racers never back out together.
func (s *VolunteerService) backOutDuplicatePending(ctx context.Context, app *models.VolunteerApplication) error {
	earlier, err := s.volunteerRepo.HasEarlierPendingByEmail(ctx, app.Email, app.ID)
	if err != nil {
		return err
	}
	if !earlier {
		return nil
	}
	if err := s.volunteerRepo.Delete(ctx, app.ID); err != nil {
		return err
	}
	return domain.ErrPendingExists
}

// List lists applications, optionally filtered by status
func (s *VolunteerService) List(ctx context.Context, actor domain.Actor, status string, offset, limit int) ([]*models.VolunteerApplication, int64, error) {
	if !domain.Authorize(actor, domain.PermManageVolunteers) {
		return nil, 0, domain.ErrForbidden
	}
	return s.volunteerRepo.List(ctx, status, offset, limit)
}

// Approve moves a pending application to approved and creates (or
// reactivates) the volunteer user with a temporary password. Approving an
// already-approved application is a no-op success, so a double click or a
// lost race never produces a second user.
func (s *VolunteerService) Approve(ctx context.Context, actor domain.Actor, id uint) (*models.VolunteerApplication, error) {
	if !domain.Authorize(actor, domain.PermManageVolunteers) {
		return nil, domain.ErrForbidden
	}

	app, err := s.getApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	switch domain.ApplicationStatus(app.Status) {
	case domain.ApplicationApproved:
		// idempotent re-approve; also repairs the volunteer user when an
		// earlier attempt failed after the status committed
		if err := s.repairApprovedUser(ctx, app); err != nil {
			return nil, err
		}
		return app, nil
	case domain.ApplicationRejected, domain.ApplicationCompleted:
		return nil, domain.ErrInvalidTransition
	}

	// the email must be claimable before the status commits; a failed
	// guard leaves the application pending and decidable
	if _, err := s.adoptableUser(ctx, app.Email); err != nil {
		return nil, err
	}

	now := time.Now()
	won, err := s.volunteerRepo.UpdateStatusIf(ctx, app.ID, string(domain.ApplicationPending), map[string]interface{}{
		"status":     string(domain.ApplicationApproved),
		"decided_by": actor.UserID,
		"decided_at": now,
	})
	if err != nil {
		return nil, err
	}
	if !won {
		// lost the race: re-read once and reconcile
		return s.reconcileDecision(ctx, id, domain.ApplicationApproved)
	}

	tempPassword, err := s.ensureVolunteerUser(ctx, app)
	if err != nil {
		return nil, err
	}

	s.notifier.Send(TemplateVolunteerApproved, app.Email, map[string]interface{}{
		"name":          app.Name,
		"temp_password": tempPassword,
	})

	app.Status = string(domain.ApplicationApproved)
	app.DecidedBy = &actor.UserID
	app.DecidedAt = &now

	log.Printf("✅ Application #%d approved by user %d", app.ID, actor.UserID)
	return app, nil
}

// Reject moves a pending application to rejected. A non-empty reason is
// required. Rejecting an already-rejected application is a no-op success.
func (s *VolunteerService) Reject(ctx context.Context, actor domain.Actor, id uint, reason string) (*models.VolunteerApplication, error) {
	if !domain.Authorize(actor, domain.PermManageVolunteers) {
		return nil, domain.ErrForbidden
	}
	if strings.TrimSpace(reason) == "" {
		return nil, domain.ErrReasonRequired
	}

	app, err := s.getApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	switch domain.ApplicationStatus(app.Status) {
	case domain.ApplicationRejected:
		return app, nil
	case domain.ApplicationApproved, domain.ApplicationCompleted:
		return nil, domain.ErrInvalidTransition
	}

	now := time.Now()
	won, err := s.volunteerRepo.UpdateStatusIf(ctx, app.ID, string(domain.ApplicationPending), map[string]interface{}{
		"status":           string(domain.ApplicationRejected),
		"rejection_reason": reason,
		"decided_by":       actor.UserID,
		"decided_at":       now,
	})
	if err != nil {
		return nil, err
	}
	if !won {
		return s.reconcileDecision(ctx, id, domain.ApplicationRejected)
	}

	s.notifier.Send(TemplateVolunteerRejected, app.Email, map[string]interface{}{
		"name":   app.Name,
		"reason": reason,
	})

	app.Status = string(domain.ApplicationRejected)
	app.RejectionReason = reason
	app.DecidedBy = &actor.UserID
	app.DecidedAt = &now

	log.Printf("✅ Application #%d rejected by user %d", app.ID, actor.UserID)
	return app, nil
}

// Complete marks an approved engagement as finished. Only valid from
// approved; the volunteer user is kept.
func (s *VolunteerService) Complete(ctx context.Context, actor domain.Actor, id uint) (*models.VolunteerApplication, error) {
	if !domain.Authorize(actor, domain.PermManageVolunteers) {
		return nil, domain.ErrForbidden
	}

	app, err := s.getApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	switch domain.ApplicationStatus(app.Status) {
	case domain.ApplicationCompleted:
		return app, nil
	case domain.ApplicationPending, domain.ApplicationRejected:
		return nil, domain.ErrInvalidTransition
	}

	won, err := s.volunteerRepo.UpdateStatusIf(ctx, app.ID, string(domain.ApplicationApproved), map[string]interface{}{
		"status": string(domain.ApplicationCompleted),
	})
	if err != nil {
		return nil, err
	}
	if !won {
		return s.reconcileDecision(ctx, id, domain.ApplicationCompleted)
	}

	app.Status = string(domain.ApplicationCompleted)
	log.Printf("✅ Application #%d completed", app.ID)
	return app, nil
}

// Invite creates an approved-equivalent application and the volunteer user
// directly, bypassing the pending state
func (s *VolunteerService) Invite(ctx context.Context, actor domain.Actor, input *InviteInput) (*models.VolunteerApplication, error) {
	if !domain.Authorize(actor, domain.PermManageVolunteers) {
		return nil, domain.ErrForbidden
	}

	email := NormalizeEmail(input.Email)
	if input.Name == "" || email == "" {
		return nil, domain.ErrInvalidInput
	}

	if _, err := s.adoptableUser(ctx, email); err != nil {
		return nil, err
	}

	now := time.Now()
	app := &models.VolunteerApplication{
		Name:      strings.TrimSpace(input.Name),
		Email:     email,
		Status:    string(domain.ApplicationApproved),
		DecidedBy: &actor.UserID,
		DecidedAt: &now,
	}
	if err := s.volunteerRepo.Create(ctx, app); err != nil {
		return nil, err
	}

	tempPassword, err := s.ensureVolunteerUser(ctx, app)
	if err != nil {
		return nil, err
	}

	s.notifier.Send(TemplateVolunteerInvited, email, map[string]interface{}{
		"name":          app.Name,
		"temp_password": tempPassword,
	})

	log.Printf("✅ Volunteer invited: %s by user %d", email, actor.UserID)
	return app, nil
}

// Delete hard deletes an application from any status. This is the
// deliberate escape hatch: callers wanting reject semantics for a pending
// application call Reject instead. For decided applications the volunteer
// user record goes too, per the retention rules.
func (s *VolunteerService) Delete(ctx context.Context, actor domain.Actor, id uint) error {
	if !domain.Authorize(actor, domain.PermManageVolunteers) {
		return domain.ErrForbidden
	}

	app, err := s.getApplication(ctx, id)
	if err != nil {
		return err
	}

	if err := s.volunteerRepo.Delete(ctx, app.ID); err != nil {
		return err
	}

	status := domain.ApplicationStatus(app.Status)
	if status == domain.ApplicationRejected || status == domain.ApplicationCompleted {
		if user, err := s.userRepo.GetByEmail(ctx, app.Email); err == nil && user.Role == string(domain.RoleVolunteer) {
			if err := s.userRepo.Delete(ctx, user.ID); err != nil {
				return err
			}
		}
	}

	log.Printf("✅ Application #%d deleted by user %d", id, actor.UserID)
	return nil
}

// reconcileDecision handles a lost compare-and-set: the current state is
// re-read once, and the call reports success if the winner already reached
// the state this caller wanted, InvalidTransition otherwise.
func (s *VolunteerService) reconcileDecision(ctx context.Context, id uint, desired domain.ApplicationStatus) (*models.VolunteerApplication, error) {
	app, err := s.getApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if domain.ApplicationStatus(app.Status) == desired {
		return app, nil
	}
	return nil, domain.ErrInvalidTransition
}

// adoptableUser returns the prior user row an approved or invited
// volunteer may reuse, nil when the email is unclaimed. An active account
// of any role, or a retired non-volunteer account, blocks with
// ErrEmailTaken: a lifecycle decision must never hijack an existing
// account.
func (s *VolunteerService) adoptableUser(ctx context.Context, email string) (*models.User, error) {
	existing, err := s.userRepo.GetByEmailUnscoped(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if existing.IsActive && !existing.DeletedAt.Valid {
		return nil, domain.ErrEmailTaken
	}
	if existing.Role != string(domain.RoleVolunteer) {
		return nil, domain.ErrEmailTaken
	}
	return existing, nil
}

// repairApprovedUser re-runs user creation for an approved application
// whose volunteer user is missing (an earlier attempt failed between the
// status commit and the user insert) and re-sends the temp password. A
// complete approval is left untouched.
func (s *VolunteerService) repairApprovedUser(ctx context.Context, app *models.VolunteerApplication) error {
	_, err := s.userRepo.GetByEmail(ctx, app.Email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	tempPassword, err := s.ensureVolunteerUser(ctx, app)
	if err != nil {
		return err
	}

	s.notifier.Send(TemplateVolunteerApproved, app.Email, map[string]interface{}{
		"name":          app.Name,
		"temp_password": tempPassword,
	})

	log.Printf("✅ Volunteer user restored for approved application #%d", app.ID)
	return nil
}

// ensureVolunteerUser creates the volunteer user for an approved
// application, or reactivates a previously disabled or deleted volunteer.
// Returns the temporary password for the notification mail.
func (s *VolunteerService) ensureVolunteerUser(ctx context.Context, app *models.VolunteerApplication) (string, error) {
	existing, err := s.adoptableUser(ctx, app.Email)
	if err != nil {
		return "", err
	}

	tempPassword := password.GenerateTemporary()
	hashed, err := password.Hash(tempPassword)
	if err != nil {
		return "", err
	}

	if existing != nil {
		if err := s.userRepo.Restore(ctx, existing.ID); err != nil {
			return "", err
		}
		if err := s.userRepo.UpdateFields(ctx, existing.ID, map[string]interface{}{
			"name":               app.Name,
			"role":               string(domain.RoleVolunteer),
			"password":           hashed,
			"is_first_login":     true,
			"is_active":          true,
			"failed_login_count": 0,
			"locked_until":       nil,
		}); err != nil {
			return "", err
		}
		return tempPassword, nil
	}

	user := &models.User{
		Name:         app.Name,
		Email:        app.Email,
		Phone:        app.Phone,
		Password:     hashed,
		Role:         string(domain.RoleVolunteer),
		IsFirstLogin: true,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return "", err
	}
	return tempPassword, nil
}

func (s *VolunteerService) getApplication(ctx context.Context, id uint) (*models.VolunteerApplication, error) {
	app, err := s.volunteerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return app, nil
}
