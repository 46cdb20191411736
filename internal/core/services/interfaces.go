package services

// Notification template ids. The Notifier collaborator owns rendering and
// delivery; the engine only names the template and hands over the payload.
const (
	TemplateVolunteerApproved = "volunteer-approved"
	TemplateVolunteerRejected = "volunteer-rejected"
	TemplateVolunteerInvited  = "volunteer-invited"
	TemplatePasswordResetOTP  = "password-reset-otp"
	TemplateTaskAssigned      = "task-assigned"
	TemplateTaskSubmitted     = "task-submitted"
	TemplateTaskApproved      = "task-approved"
	TemplateTaskRejected      = "task-rejected"
)

// Notifier sends templated messages to a recipient. Implementations are
// fire-and-forget: a delivery failure must never fail the calling
// transition, so Send returns nothing and logs its own errors.
type Notifier interface {
	Send(templateID, recipient string, payload map[string]interface{})
}
