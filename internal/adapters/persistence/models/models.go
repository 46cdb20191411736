package models

import (
	"time"

	"volunteerhub/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Auth & User Tables
// ============================================================

// User represents users table
type User struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Name             string         `gorm:"size:100;not null" json:"name"`
	Email            string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Phone            string         `gorm:"size:20" json:"phone"`
	Password         string         `gorm:"size:255;not null" json:"-"`
	Role             string         `gorm:"size:20;default:'volunteer'" json:"role"`
	Permissions      []string       `gorm:"serializer:json;type:text" json:"permissions"`
	IsFirstLogin     bool           `gorm:"default:false" json:"is_first_login"`
	IsActive         bool           `gorm:"default:true" json:"is_active"`
	FailedLoginCount int            `gorm:"default:0" json:"-"`
	LastFailedAt     *time.Time     `json:"-"`
	LockedUntil      *time.Time     `json:"-"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// IsLocked reports whether the lockout window is still in effect
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// Actor builds the authorization view of the user
func (u *User) Actor() domain.Actor {
	return domain.Actor{
		UserID:      u.ID,
		Role:        domain.Role(u.Role),
		Permissions: u.Permissions,
	}
}

// UserResponse DTO
type UserResponse struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Role         string    `json:"role"`
	Permissions  []string  `json:"permissions,omitempty"`
	IsFirstLogin bool      `json:"is_first_login"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		Role:         u.Role,
		Permissions:  u.Permissions,
		IsFirstLogin: u.IsFirstLogin,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
	}
}

// Session represents sessions table. Only the SHA256 hash of the opaque
// bearer token is stored; the raw token lives with the client.
type Session struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"index;not null" json:"user_id"`
	TokenHash    string     `gorm:"size:255;not null;index" json:"-"`
	RoleSnapshot string     `gorm:"size:20;not null" json:"role_snapshot"`
	ExpiresAt    time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt    *time.Time `gorm:"index" json:"revoked_at"`
	User         User       `gorm:"foreignKey:UserID" json:"-"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}

func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// PasswordReset represents password_resets table (one-time reset codes).
// Expiry is checked lazily at verify/reset; there is no sweeper.
type PasswordReset struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"index;size:100;not null" json:"email"`
	CodeHash  string    `gorm:"size:255;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Consumed  bool      `gorm:"default:false" json:"consumed"`
	Attempts  int       `gorm:"default:0" json:"attempts"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (PasswordReset) TableName() string {
	return "password_resets"
}

func (p *PasswordReset) IsExpired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// ============================================================
// Workflow Tables
// ============================================================

// VolunteerApplication represents volunteer_applications table
type VolunteerApplication struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Name            string     `gorm:"size:100;not null" json:"name"`
	Email           string     `gorm:"index;size:100;not null" json:"email"`
	Phone           string     `gorm:"size:20" json:"phone"`
	Skills          string     `gorm:"type:text" json:"skills"`
	Expertise       string     `gorm:"type:text" json:"expertise"`
	Availability    string     `gorm:"size:100" json:"availability"`
	Motivation      string     `gorm:"type:text" json:"motivation"`
	Status          string     `gorm:"size:20;index;default:'pending'" json:"status"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	DecidedBy       *uint      `json:"decided_by,omitempty"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (VolunteerApplication) TableName() string {
	return "volunteer_applications"
}

// Task represents tasks table
type Task struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Title             string     `gorm:"size:200;not null" json:"title"`
	Description       string     `gorm:"type:text" json:"description"`
	DueDate           *time.Time `json:"due_date,omitempty"`
	Priority          string     `gorm:"size:10;default:'medium'" json:"priority"`
	AssignedTo        uint       `gorm:"index;not null" json:"assigned_to"`
	AssignedBy        uint       `gorm:"not null" json:"assigned_by"`
	Status            string     `gorm:"size:20;index;default:'pending'" json:"status"`
	SubmissionDetails string     `gorm:"type:text" json:"submission_details,omitempty"`
	SubmittedAt       *time.Time `json:"submitted_at,omitempty"`
	ReviewedBy        *uint      `json:"reviewed_by,omitempty"`
	ReviewedAt        *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Task) TableName() string {
	return "tasks"
}

// TaskResponse DTO. Completed mirrors the legacy boolean field older
// clients still read; the status enum is the source of truth.
type TaskResponse struct {
	ID                uint       `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	DueDate           *time.Time `json:"due_date,omitempty"`
	Priority          string     `json:"priority"`
	AssignedTo        uint       `json:"assigned_to"`
	AssignedBy        uint       `json:"assigned_by"`
	Status            string     `json:"status"`
	Completed         bool       `json:"completed"`
	SubmissionDetails string     `json:"submission_details,omitempty"`
	SubmittedAt       *time.Time `json:"submitted_at,omitempty"`
	ReviewedBy        *uint      `json:"reviewed_by,omitempty"`
	ReviewedAt        *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (t *Task) ToResponse() *TaskResponse {
	return &TaskResponse{
		ID:                t.ID,
		Title:             t.Title,
		Description:       t.Description,
		DueDate:           t.DueDate,
		Priority:          t.Priority,
		AssignedTo:        t.AssignedTo,
		AssignedBy:        t.AssignedBy,
		Status:            t.Status,
		Completed:         t.Status == string(domain.TaskCompleted),
		SubmissionDetails: t.SubmissionDetails,
		SubmittedAt:       t.SubmittedAt,
		ReviewedBy:        t.ReviewedBy,
		ReviewedAt:        t.ReviewedAt,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

// AutoMigrate creates or updates all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Session{},
		&PasswordReset{},
		&VolunteerApplication{},
		&Task{},
	)
}
