package services

import (
	"context"
	"testing"
	"time"

	"volunteerhub/internal/adapters/persistence/models"
	"volunteerhub/internal/adapters/persistence/repositories"
	"volunteerhub/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTaskService(db *gorm.DB, notifier Notifier) *TaskService {
	return NewTaskService(
		repositories.NewTaskRepository(db),
		repositories.NewUserRepository(db),
		notifier,
	)
}

// taskFixture seeds a reviewer, an assignee and one pending task
func taskFixture(t *testing.T, db *gorm.DB, svc *TaskService) (reviewer domain.Actor, assignee domain.Actor, task *models.Task) {
	t.Helper()
	reviewerUser := seedUser(t, db, "reviewer@example.org", "reviewer-pass", domain.RoleAdmin, []string{domain.PermManageTaskAssignment})
	assigneeUser := seedUser(t, db, "worker@example.org", "worker-pass", domain.RoleVolunteer, nil)

	reviewer = reviewerUser.Actor()
	assignee = assigneeUser.Actor()

	created, err := svc.Create(context.Background(), reviewer, &CreateTaskInput{
		Title:      "Sort pantry donations",
		AssignedTo: assigneeUser.ID,
	})
	require.NoError(t, err)
	return reviewer, assignee, created
}

func TestCreateTaskDefaultsAndValidation(t *testing.T) {
	db := setupTestDB(t)
	notifier := &fakeNotifier{}
	svc := newTaskService(db, notifier)
	_, _, task := taskFixture(t, db, svc)

	assert.Equal(t, string(domain.TaskPending), task.Status)
	assert.Equal(t, string(domain.PriorityMedium), task.Priority)

	sent := notifier.last()
	require.NotNil(t, sent)
	assert.Equal(t, TemplateTaskAssigned, sent.TemplateID)
	assert.Equal(t, "worker@example.org", sent.Recipient)

	reviewer := domain.Actor{UserID: 1, Role: domain.RoleAdmin, Permissions: []string{domain.PermManageTaskAssignment}}

	_, err := svc.Create(context.Background(), reviewer, &CreateTaskInput{Title: "  ", AssignedTo: task.AssignedTo})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Create(context.Background(), reviewer, &CreateTaskInput{Title: "x", AssignedTo: task.AssignedTo, Priority: "urgent-ish"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Create(context.Background(), reviewer, &CreateTaskInput{Title: "x", AssignedTo: 9999})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateTaskRejectsInactiveAssignee(t *testing.T) {
	db := setupTestDB(t)
	svc := newTaskService(db, &fakeNotifier{})
	reviewerUser := seedUser(t, db, "reviewer@example.org", "reviewer-pass", domain.RoleAdmin, []string{domain.PermManageTaskAssignment})
	assigneeUser := seedUser(t, db, "worker@example.org", "worker-pass", domain.RoleVolunteer, nil)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", assigneeUser.ID).
		Update("is_active", false).Error)

	_, err := svc.Create(context.Background(), reviewerUser.Actor(), &CreateTaskInput{
		Title:      "Sort pantry donations",
		AssignedTo: assigneeUser.ID,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVolunteerCapabilityImpliesTaskAssignment(t *testing.T) {
	db := setupTestDB(t)
	svc := newTaskService(db, &fakeNotifier{})
	manager := seedUser(t, db, "manager@example.org", "manager-pass", domain.RoleAdmin, []string{domain.PermManageVolunteers})
	worker := seedUser(t, db, "worker@example.org", "worker-pass", domain.RoleVolunteer, nil)

	// manage_volunteers carries manage_task_assignment with it
	_, err := svc.Create(context.Background(), manager.Actor(), &CreateTaskInput{
		Title:      "Sort pantry donations",
		AssignedTo: worker.ID,
	})
	require.NoError(t, err)
}

func TestSubmitRules(t *testing.T) {
	db := setupTestDB(t)
	svc := newTaskService(db, &fakeNotifier{})
	_, assignee, task := taskFixture(t, db, svc)
	ctx := context.Background()

	// only the assignee may submit
	stranger := domain.Actor{UserID: 9999, Role: domain.RoleVolunteer}
	_, err := svc.Submit(ctx, stranger, task.ID, "done")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// details are mandatory
	_, err = svc.Submit(ctx, assignee, task.ID, "   ")
	assert.ErrorIs(t, err, domain.ErrSubmissionRequired)

	submitted, err := svc.Submit(ctx, assignee, task.ID, "sorted and shelved")
	require.NoError(t, err)
	assert.Equal(t, string(domain.TaskSubmitted), submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)

	// resubmitting while submitted is a no-op success
	again, err := svc.Submit(ctx, assignee, task.ID, "sorted and shelved")
	require.NoError(t, err)
	assert.Equal(t, string(domain.TaskSubmitted), again.Status)
}

func TestApproveCompletesSubmittedTask(t *testing.T) {
	db := setupTestDB(t)
	notifier := &fakeNotifier{}
	svc := newTaskService(db, notifier)
	reviewer, assignee, task := taskFixture(t, db, svc)
	ctx := context.Background()

	// approving a pending task is invalid
	_, err := svc.Approve(ctx, reviewer, task.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.Submit(ctx, assignee, task.ID, "sorted and shelved")
	require.NoError(t, err)

	done, err := svc.Approve(ctx, reviewer, task.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.TaskCompleted), done.Status)
	require.NotNil(t, done.ReviewedAt)

	sent := notifier.last()
	require.NotNil(t, sent)
	assert.Equal(t, TemplateTaskApproved, sent.TemplateID)

	// idempotent re-approve; a completed task cannot be submitted again
	_, err = svc.Approve(ctx, reviewer, task.ID)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, assignee, task.ID, "again")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestRejectSendsTaskBackForRework(t *testing.T) {
	db := setupTestDB(t)
	notifier := &fakeNotifier{}
	svc := newTaskService(db, notifier)
	reviewer, assignee, task := taskFixture(t, db, svc)
	ctx := context.Background()

	_, err := svc.Submit(ctx, assignee, task.ID, "first attempt")
	require.NoError(t, err)

	reworked, err := svc.Reject(ctx, reviewer, task.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.TaskPending), reworked.Status)
	assert.Empty(t, reworked.SubmissionDetails)
	assert.Nil(t, reworked.SubmittedAt)

	// the rejected details travel in the notification, not on the task
	sent := notifier.last()
	require.NotNil(t, sent)
	assert.Equal(t, TemplateTaskRejected, sent.TemplateID)
	assert.Equal(t, "first attempt", sent.Payload["details"])

	// the assignee can fix and resubmit, and the fix can be approved
	_, err = svc.Submit(ctx, assignee, task.ID, "second attempt")
	require.NoError(t, err)
	done, err := svc.Approve(ctx, reviewer, task.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.TaskCompleted), done.Status)
}

func TestTaskTransitionCompareAndSet(t *testing.T) {
	db := setupTestDB(t)
	repo := repositories.NewTaskRepository(db)
	svc := newTaskService(db, &fakeNotifier{})
	reviewer, assignee, task := taskFixture(t, db, svc)
	ctx := context.Background()

	_, err := svc.Submit(ctx, assignee, task.ID, "attempt")
	require.NoError(t, err)

	// first reviewer approves at the repo level
	won, err := repo.UpdateStatusIf(ctx, task.ID, string(domain.TaskSubmitted), map[string]interface{}{
		"status": string(domain.TaskCompleted),
	})
	require.NoError(t, err)
	assert.True(t, won)

	// a racing reject loses the compare-and-set and reconciles to a conflict
	_, err = svc.Reject(ctx, reviewer, task.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestSubmitAfterDelete(t *testing.T) {
	db := setupTestDB(t)
	svc := newTaskService(db, &fakeNotifier{})
	reviewer, assignee, task := taskFixture(t, db, svc)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, reviewer, task.ID))

	_, err := svc.Submit(ctx, assignee, task.ID, "too late")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, reviewer, task.ID), domain.ErrNotFound)
}

func TestUpdateTaskMetadata(t *testing.T) {
	db := setupTestDB(t)
	svc := newTaskService(db, &fakeNotifier{})
	reviewer, _, task := taskFixture(t, db, svc)
	ctx := context.Background()

	title := "Sort pantry donations (weekend)"
	priority := string(domain.PriorityHigh)
	due := time.Now().Add(72 * time.Hour).Truncate(time.Second)

	updated, err := svc.Update(ctx, reviewer, task.ID, &UpdateTaskInput{
		Title:    &title,
		Priority: &priority,
		DueDate:  &due,
	})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, priority, updated.Priority)
	require.NotNil(t, updated.DueDate)
	assert.Equal(t, string(domain.TaskPending), updated.Status)

	empty := "  "
	_, err = svc.Update(ctx, reviewer, task.ID, &UpdateTaskInput{Title: &empty})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	bad := "someday"
	_, err = svc.Update(ctx, reviewer, task.ID, &UpdateTaskInput{Priority: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	ghost := uint(9999)
	_, err = svc.Update(ctx, reviewer, task.ID, &UpdateTaskInput{AssignedTo: &ghost})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListTasksVisibility(t *testing.T) {
	db := setupTestDB(t)
	svc := newTaskService(db, &fakeNotifier{})
	reviewer, assignee, _ := taskFixture(t, db, svc)
	ctx := context.Background()

	other := seedUser(t, db, "other@example.org", "other-pass", domain.RoleVolunteer, nil)
	_, err := svc.Create(ctx, reviewer, &CreateTaskInput{Title: "Second task", AssignedTo: other.ID})
	require.NoError(t, err)

	// an assignee sees only their own tasks
	own, total, err := svc.List(ctx, assignee, assignee.UserID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, own, 1)
	assert.Equal(t, assignee.UserID, own[0].AssignedTo)

	// and may not list someone else's or the full set
	_, _, err = svc.List(ctx, assignee, other.ID, 0, 10)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, _, err = svc.List(ctx, assignee, 0, 0, 10)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// a reviewer sees everything
	all, total, err := svc.List(ctx, reviewer, 0, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)

	// Get follows the same rule
	_, err = svc.Get(ctx, assignee, all[0].ID)
	if all[0].AssignedTo != assignee.UserID {
		assert.ErrorIs(t, err, domain.ErrForbidden)
	} else {
		require.NoError(t, err)
	}
}
