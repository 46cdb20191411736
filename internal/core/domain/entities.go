package domain

import "time"

// Role represents user role in the system
type Role string

const (
	RoleVolunteer  Role = "volunteer"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
	RoleTrustee    Role = "trustee"
	RoleDeveloper  Role = "developer"
)

// IsValid reports whether the role is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleVolunteer, RoleAdmin, RoleSuperadmin, RoleTrustee, RoleDeveloper:
		return true
	}
	return false
}

// Permission strings assignable to admin users
const (
	PermManageVolunteers     = "manage_volunteers"
	PermManageTaskAssignment = "manage_task_assignment"
	PermManagePosts          = "manage_posts"
	PermManageCourses        = "manage_courses"
	PermManageLectures       = "manage_lectures"
)

// KnownPermissions lists every permission the portal understands
var KnownPermissions = []string{
	PermManageVolunteers,
	PermManageTaskAssignment,
	PermManagePosts,
	PermManageCourses,
	PermManageLectures,
}

// ApplicationStatus represents volunteer application lifecycle state
type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationApproved  ApplicationStatus = "approved"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationCompleted ApplicationStatus = "completed"
)

// TaskStatus represents task lifecycle state
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskSubmitted TaskStatus = "submitted"
	TaskCompleted TaskStatus = "completed"
	TaskRejected  TaskStatus = "rejected"
)

// TaskPriority represents task priority
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// IsValid reports whether the priority is one of the known levels
func (p TaskPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Actor is the authenticated user a request acts as.
// Role and Permissions are snapshots taken at session validation.
type Actor struct {
	UserID      uint
	Role        Role
	Permissions []string
}

// User represents a user in the domain layer
type User struct {
	ID               uint
	Name             string
	Email            string
	Phone            string
	Password         string // hashed
	Role             Role
	Permissions      []string
	IsFirstLogin     bool
	IsActive         bool
	FailedLoginCount int
	LastFailedAt     *time.Time
	LockedUntil      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// VolunteerApplication represents an application in the domain layer
type VolunteerApplication struct {
	ID              uint
	Name            string
	Email           string
	Phone           string
	Skills          string
	Expertise       string
	Availability    string
	Motivation      string
	Status          ApplicationStatus
	RejectionReason string
	DecidedBy       *uint
	DecidedAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Task represents an assigned task in the domain layer
type Task struct {
	ID                uint
	Title             string
	Description       string
	DueDate           *time.Time
	Priority          TaskPriority
	AssignedTo        uint
	AssignedBy        uint
	Status            TaskStatus
	SubmissionDetails string
	SubmittedAt       *time.Time
	ReviewedBy        *uint
	ReviewedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Session represents a bearer session in the domain layer
type Session struct {
	ID           uint
	UserID       uint
	TokenHash    string
	RoleSnapshot Role
	ExpiresAt    time.Time
	CreatedAt    time.Time
	RevokedAt    *time.Time
}
