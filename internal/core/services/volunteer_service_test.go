package services

import (
	"context"
	"testing"

	"volunteerhub/internal/adapters/persistence/models"
	"volunteerhub/internal/adapters/persistence/repositories"
	"volunteerhub/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newVolunteerService(db *gorm.DB, notifier Notifier) *VolunteerService {
	return NewVolunteerService(
		repositories.NewVolunteerRepository(db),
		repositories.NewUserRepository(db),
		notifier,
	)
}

func managerActor() domain.Actor {
	return domain.Actor{UserID: 1, Role: domain.RoleAdmin, Permissions: []string{domain.PermManageVolunteers}}
}

func apply(t *testing.T, svc *VolunteerService, email string) *models.VolunteerApplication {
	t.Helper()
	app, err := svc.Apply(context.Background(), &ApplyInput{Name: "Jordan Diaz", Email: email, Skills: "logistics"})
	require.NoError(t, err)
	return app
}

func TestApplyRejectsSecondPending(t *testing.T) {
	db := setupTestDB(t)
	svc := newVolunteerService(db, &fakeNotifier{})

	apply(t, svc, "jordan@example.org")

	_, err := svc.Apply(context.Background(), &ApplyInput{Name: "Jordan Diaz", Email: "Jordan@Example.org"})
	assert.ErrorIs(t, err, domain.ErrPendingExists)
}

func TestApplyAllowedAgainAfterDecision(t *testing.T) {
	db := setupTestDB(t)
	svc := newVolunteerService(db, &fakeNotifier{})
	ctx := context.Background()

	app := apply(t, svc, "jordan@example.org")
	_, err := svc.Reject(ctx, managerActor(), app.ID, "incomplete application")
	require.NoError(t, err)

	// a decided application no longer blocks a new one
	apply(t, svc, "jordan@example.org")
}

func TestApplyValidatesInput(t *testing.T) {
	db := setupTestDB(t)
	svc := newVolunteerService(db, &fakeNotifier{})

	_, err := svc.Apply(context.Background(), &ApplyInput{Name: "", Email: "jordan@example.org"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Apply(context.Background(), &ApplyInput{Name: "Jordan Diaz", Email: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestApproveCreatesVolunteerUser(t *testing.T) {
	db := setupTestDB(t)
	notifier := &fakeNotifier{}
	svc := newVolunteerService(db, notifier)
	ctx := context.Background()

	app := apply(t, svc, "jordan@example.org")

	approved, err := svc.Approve(ctx, managerActor(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.ApplicationApproved), approved.Status)
	require.NotNil(t, approved.DecidedAt)

	var user models.User
	require.NoError(t, db.Where("email = ?", "jordan@example.org").First(&user).Error)
	assert.Equal(t, string(domain.RoleVolunteer), user.Role)
	assert.True(t, user.IsFirstLogin)
	assert.True(t, user.IsActive)

	sent := notifier.last()
	require.NotNil(t, sent)
	assert.Equal(t, TemplateVolunteerApproved, sent.TemplateID)
	temp, _ := sent.Payload["temp_password"].(string)
	require.NotEmpty(t, temp)

	// the mailed temporary password actually works
	auth := newAuthService(db)
	_, err = auth.Login(ctx, &LoginInput{Email: "jordan@example.org", Password: temp})
	require.NoError(t, err)
}

func TestApproveIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	notifier := &fakeNotifier{}
	svc := newVolunteerService(db, notifier)
	ctx := context.Background()

	app := apply(t, svc, "jordan@example.org")
	_, err := svc.Approve(ctx, managerActor(), app.ID)
	require.NoError(t, err)

	// second approve succeeds without a second user or mail
	again, err := svc.Approve(ctx, managerActor(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.ApplicationApproved), again.Status)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "jordan@example.org").Count(&users).Error)
	assert.EqualValues(t, 1, users)
	assert.Equal(t, 1, notifier.count())
}

func TestApproveAfterRejectFails(t *testing.T) {
	db := setupTestDB(t)
	svc := newVolunteerService(db, &fakeNotifier{})
	ctx := context.Background()

	app := apply(t, svc, "jordan@example.org")
	_, err := svc.Reject(ctx, managerActor(), app.ID, "not a fit")
	require.NoError(t, err)

	_, err = svc.Approve(ctx, managerActor(), app.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// no user was created for the rejected applicant
	var users int64
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "jordan@example.org").Count(&users).Error)
	assert.Zero(t, users)
}

func TestRejectRequiresReason(t *testing.T) {
	db := setupTestDB(t)
	svc := newVolunteerService(db, &fakeNotifier{})
	ctx := context.Background()

	app := apply(t, svc, "jordan@example.org")

	_, err := svc.Reject(ctx, managerActor(), app.ID, "   ")
	assert.ErrorIs(t, err, domain.ErrReasonRequired)

	rejected, err := svc.Reject(ctx, managerActor(), app.ID, "missing references")
	require.NoError(t, err)
	assert.Equal(t, "missing references", rejected.RejectionReason)

	// idempotent re-reject
	_, err = svc.Reject(ctx, managerActor(), app.ID, "missing references")
	require.NoError(t, err)
}

func TestCompleteOnlyFromApproved(t *testing.T) {
	db := setupTestDB(t)
	svc := newVolunteerService(db, &fakeNotifier{})
	ctx := context.Background()

	app := apply(t, svc, "jordan@example.org")

	_, err := svc.Complete(ctx, managerActor(), app.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.Approve(ctx, managerActor(), app.ID)
	require.NoError(t, err)

	done, err := svc.Complete(ctx, managerActor(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.ApplicationCompleted), done.Status)

	// the volunteer user survives completion
	var users int64
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "jordan@example.org").Count(&users).Error)
	assert.EqualValues(t, 1, users)
}

func TestDecisionCompareAndSet(t *testing.T) {
	db := setupTestDB(t)
	repo := repositories.NewVolunteerRepository(db)
	svc := newVolunteerService(db, &fakeNotifier{})
	ctx := context.Background()

	app := apply(t, svc, "jordan@example.org")

	// first writer wins
	won, err := repo.UpdateStatusIf(ctx, app.ID, string(domain.ApplicationPending), map[string]interface{}{
		"status": string(domain.ApplicationRejected),
	})
	require.NoError(t, err)
	assert.True(t, won)

	// second writer expecting pending loses
	won, err = repo.UpdateStatusIf(ctx, app.ID, string(domain.ApplicationPending), map[string]interface{}{
		"status": string(domain.ApplicationApproved),
	})
	require.NoError(t, err)
	assert.False(t, won)

	// a service-level approve racing the reject reconciles to a conflict
	_, err = svc.Approve(ctx, managerActor(), app.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestInvite(t *testing.T) {
	db := setupTestDB(t)
	notifier := &fakeNotifier{}
	svc := newVolunteerService(db, notifier)
	ctx := context.Background()

	app, err := svc.Invite(ctx, managerActor(), &InviteInput{Name: "Sam Okafor", Email: "sam@example.org"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.ApplicationApproved), app.Status)

	var user models.User
	require.NoError(t, db.Where("email = ?", "sam@example.org").First(&user).Error)
	assert.True(t, user.IsFirstLogin)

	sent := notifier.last()
	require.NotNil(t, sent)
	assert.Equal(t, TemplateVolunteerInvited, sent.TemplateID)

	// a second invite for an active user is a conflict
	_, err = svc.Invite(ctx, managerActor(), &InviteInput{Name: "Sam Okafor", Email: "sam@example.org"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestApproveReactivatesDeletedUser(t *testing.T) {
	db := setupTestDB(t)
	svc := newVolunteerService(db, &fakeNotifier{})
	ctx := context.Background()

	// first engagement, then the application and user are removed
	first := apply(t, svc, "jordan@example.org")
	_, err := svc.Approve(ctx, managerActor(), first.ID)
	require.NoError(t, err)
	_, err = svc.Complete(ctx, managerActor(), first.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, managerActor(), first.ID))

	// the volunteer applies and is approved again
	second := apply(t, svc, "jordan@example.org")
	_, err = svc.Approve(ctx, managerActor(), second.ID)
	require.NoError(t, err)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "jordan@example.org").Count(&users).Error)
	assert.EqualValues(t, 1, users)

	var user models.User
	require.NoError(t, db.Where("email = ?", "jordan@example.org").First(&user).Error)
	assert.True(t, user.IsActive)
	assert.True(t, user.IsFirstLogin)
}

func TestDeleteRemovesDecidedVolunteerUser(t *testing.T) {
	db := setupTestDB(t)
	svc := newVolunteerService(db, &fakeNotifier{})
	ctx := context.Background()

	app := apply(t, svc, "jordan@example.org")
	_, err := svc.Approve(ctx, managerActor(), app.ID)
	require.NoError(t, err)
	_, err = svc.Complete(ctx, managerActor(), app.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, managerActor(), app.ID))

	var apps int64
	require.NoError(t, db.Model(&models.VolunteerApplication{}).Count(&apps).Error)
	assert.Zero(t, apps)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "jordan@example.org").Count(&users).Error)
	assert.Zero(t, users)

	assert.ErrorIs(t, svc.Delete(ctx, managerActor(), app.ID), domain.ErrNotFound)
}

func TestApproveNeverHijacksExistingAccount(t *testing.T) {
	db := setupTestDB(t)
	notifier := &fakeNotifier{}
	svc := newVolunteerService(db, notifier)
	auth := newAuthService(db)
	ctx := context.Background()

	boss := seedUser(t, db, "boss@example.org", "boss-password", domain.RoleSuperadmin, nil)

	// a public application with a staff email must not be approvable
	app := apply(t, svc, "boss@example.org")
	_, err := svc.Approve(ctx, managerActor(), app.ID)
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	// the account is untouched and still logs in
	var reloaded models.User
	require.NoError(t, db.First(&reloaded, boss.ID).Error)
	assert.Equal(t, string(domain.RoleSuperadmin), reloaded.Role)
	assert.False(t, reloaded.IsFirstLogin)
	_, err = auth.Login(ctx, &LoginInput{Email: boss.Email, Password: "boss-password"})
	require.NoError(t, err)

	// the guard fired before the status change, the application is still
	// pending and can be rejected normally
	var appRow models.VolunteerApplication
	require.NoError(t, db.First(&appRow, app.ID).Error)
	assert.Equal(t, string(domain.ApplicationPending), appRow.Status)
	assert.Equal(t, 0, notifier.count())

	_, err = svc.Reject(ctx, managerActor(), app.ID, "already staff")
	require.NoError(t, err)

	// a retired staff account can't be reused as a volunteer either
	require.NoError(t, db.Delete(&models.User{}, boss.ID).Error)
	second := apply(t, svc, "boss@example.org")
	_, err = svc.Approve(ctx, managerActor(), second.ID)
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	// same guard on the invite path
	_, err = svc.Invite(ctx, managerActor(), &InviteInput{Name: "New Hire", Email: "boss@example.org"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestReapproveRepairsMissingUser(t *testing.T) {
	db := setupTestDB(t)
	notifier := &fakeNotifier{}
	svc := newVolunteerService(db, notifier)
	ctx := context.Background()

	app := apply(t, svc, "jordan@example.org")

	// the status committed but the user insert was interrupted
	require.NoError(t, db.Model(&models.VolunteerApplication{}).Where("id = ?", app.ID).
		Update("status", string(domain.ApplicationApproved)).Error)

	approved, err := svc.Approve(ctx, managerActor(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.ApplicationApproved), approved.Status)

	// re-approve created the user and re-sent the temp password
	var user models.User
	require.NoError(t, db.Where("email = ?", "jordan@example.org").First(&user).Error)
	assert.True(t, user.IsFirstLogin)

	sent := notifier.last()
	require.NotNil(t, sent)
	assert.Equal(t, TemplateVolunteerApproved, sent.TemplateID)
	temp, _ := sent.Payload["temp_password"].(string)
	assert.NotEmpty(t, temp)

	// once the user exists, re-approve is a pure no-op again
	_, err = svc.Approve(ctx, managerActor(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, notifier.count())
}

func TestApplyDoubleSubmitLoserBacksOut(t *testing.T) {
	db := setupTestDB(t)
	repo := repositories.NewVolunteerRepository(db)
	svc := newVolunteerService(db, &fakeNotifier{})
	ctx := context.Background()

	winner := apply(t, svc, "jordan@example.org")

	// a racing second application that slipped past the pre-check
	loser := &models.VolunteerApplication{
		Name:   "Jordan Diaz",
		Email:  "jordan@example.org",
		Status: string(domain.ApplicationPending),
	}
	require.NoError(t, repo.Create(ctx, loser))

	assert.ErrorIs(t, svc.backOutDuplicatePending(ctx, loser), domain.ErrPendingExists)

	// the loser row is gone, the earlier application stands
	var count int64
	require.NoError(t, db.Model(&models.VolunteerApplication{}).
		Where("email = ?", "jordan@example.org").Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var remaining models.VolunteerApplication
	require.NoError(t, db.First(&remaining, winner.ID).Error)
	assert.Equal(t, string(domain.ApplicationPending), remaining.Status)

	// the earlier row never backs out
	earlier, err := repo.HasEarlierPendingByEmail(ctx, winner.Email, winner.ID)
	require.NoError(t, err)
	assert.False(t, earlier)
}

func TestVolunteerEndpointsRequireCapability(t *testing.T) {
	db := setupTestDB(t)
	svc := newVolunteerService(db, &fakeNotifier{})
	ctx := context.Background()

	app := apply(t, svc, "jordan@example.org")

	// manage_task_assignment does not imply manage_volunteers
	actor := domain.Actor{UserID: 2, Role: domain.RoleAdmin, Permissions: []string{domain.PermManageTaskAssignment}}

	_, _, err := svc.List(ctx, actor, "", 0, 10)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.Approve(ctx, actor, app.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.Reject(ctx, actor, app.ID, "reason")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.Complete(ctx, actor, app.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, actor, app.ID), domain.ErrForbidden)

	// superadmin bypasses the capability set
	super := domain.Actor{UserID: 3, Role: domain.RoleSuperadmin}
	_, _, err = svc.List(ctx, super, "", 0, 10)
	require.NoError(t, err)
}
