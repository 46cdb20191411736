package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name     string
		actor    Actor
		required string
		want     bool
	}{
		{
			name:     "superadmin bypasses permission checks",
			actor:    Actor{Role: RoleSuperadmin},
			required: PermManageVolunteers,
			want:     true,
		},
		{
			name:     "developer bypasses permission checks",
			actor:    Actor{Role: RoleDeveloper},
			required: PermManageTaskAssignment,
			want:     true,
		},
		{
			name:     "volunteer is denied regardless of granted set",
			actor:    Actor{Role: RoleVolunteer, Permissions: []string{PermManageVolunteers}},
			required: PermManageVolunteers,
			want:     false,
		},
		{
			name:     "trustee is denied",
			actor:    Actor{Role: RoleTrustee},
			required: PermManagePosts,
			want:     false,
		},
		{
			name:     "admin with explicit permission",
			actor:    Actor{Role: RoleAdmin, Permissions: []string{PermManagePosts}},
			required: PermManagePosts,
			want:     true,
		},
		{
			name:     "admin without permission",
			actor:    Actor{Role: RoleAdmin, Permissions: []string{PermManagePosts}},
			required: PermManageCourses,
			want:     false,
		},
		{
			name:     "admin with empty set",
			actor:    Actor{Role: RoleAdmin},
			required: PermManageVolunteers,
			want:     false,
		},
		{
			name:     "manage_volunteers implies manage_task_assignment",
			actor:    Actor{Role: RoleAdmin, Permissions: []string{PermManageVolunteers}},
			required: PermManageTaskAssignment,
			want:     true,
		},
		{
			name:     "implication does not run backwards",
			actor:    Actor{Role: RoleAdmin, Permissions: []string{PermManageTaskAssignment}},
			required: PermManageVolunteers,
			want:     false,
		},
		{
			name:     "explicit manage_task_assignment still works",
			actor:    Actor{Role: RoleAdmin, Permissions: []string{PermManageTaskAssignment}},
			required: PermManageTaskAssignment,
			want:     true,
		},
		{
			name:     "unknown permission string is denied for admin",
			actor:    Actor{Role: RoleAdmin, Permissions: []string{PermManageVolunteers}},
			required: "manage_everything",
			want:     false,
		},
		{
			name:     "unknown permission string is allowed for superadmin",
			actor:    Actor{Role: RoleSuperadmin},
			required: "manage_everything",
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Authorize(tt.actor, tt.required))
		})
	}
}

func TestEffectivePermissions(t *testing.T) {
	t.Run("superadmin holds every known permission", func(t *testing.T) {
		got := EffectivePermissions(Actor{Role: RoleSuperadmin})
		assert.ElementsMatch(t, KnownPermissions, got)
	})

	t.Run("volunteer holds nothing", func(t *testing.T) {
		got := EffectivePermissions(Actor{Role: RoleVolunteer, Permissions: []string{PermManagePosts}})
		assert.Empty(t, got)
	})

	t.Run("admin set includes implied task assignment", func(t *testing.T) {
		got := EffectivePermissions(Actor{Role: RoleAdmin, Permissions: []string{PermManageVolunteers}})
		assert.ElementsMatch(t, []string{PermManageVolunteers, PermManageTaskAssignment}, got)
	})

	t.Run("no duplicate when explicitly granted", func(t *testing.T) {
		got := EffectivePermissions(Actor{Role: RoleAdmin, Permissions: []string{PermManageVolunteers, PermManageTaskAssignment}})
		assert.ElementsMatch(t, []string{PermManageVolunteers, PermManageTaskAssignment}, got)
	})
}
