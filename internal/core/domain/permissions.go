package domain

// Authorize decides whether an actor may perform an operation guarded by
// requiredPermission. Pure function; rules are evaluated in order:
//
//  1. superadmin and developer bypass permission checks entirely
//  2. permissions are an admin-only concept, every other role is denied
//  3. manage_volunteers implies manage_task_assignment
//  4. otherwise the permission must be in the actor's granted set
//
// The permission set narrows what the admin role already implies, it never
// grants capability to a non-admin.
func Authorize(actor Actor, requiredPermission string) bool {
	if actor.Role == RoleSuperadmin || actor.Role == RoleDeveloper {
		return true
	}
	if actor.Role != RoleAdmin {
		return false
	}
	if requiredPermission == PermManageTaskAssignment && hasPermission(actor.Permissions, PermManageVolunteers) {
		return true
	}
	return hasPermission(actor.Permissions, requiredPermission)
}

func hasPermission(granted []string, p string) bool {
	for _, g := range granted {
		if g == p {
			return true
		}
	}
	return false
}

// EffectivePermissions returns the permissions an actor effectively holds,
// including implied ones. Superadmin and developer hold everything.
func EffectivePermissions(actor Actor) []string {
	if actor.Role == RoleSuperadmin || actor.Role == RoleDeveloper {
		out := make([]string, len(KnownPermissions))
		copy(out, KnownPermissions)
		return out
	}
	if actor.Role != RoleAdmin {
		return []string{}
	}
	out := make([]string, 0, len(actor.Permissions)+1)
	out = append(out, actor.Permissions...)
	if hasPermission(actor.Permissions, PermManageVolunteers) && !hasPermission(actor.Permissions, PermManageTaskAssignment) {
		out = append(out, PermManageTaskAssignment)
	}
	return out
}
