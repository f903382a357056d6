package rbac

import "slices"

// Permissions
const (
	PermissionSubmitRequest    = "request:submit"
	PermissionReadFeed         = "request:read"
	PermissionDeleteOwnRequest = "request:delete_own"
	PermissionDeleteAnyRequest = "request:delete_any"
	PermissionClassify         = "classify:run"
	PermissionReplayOutbox     = "outbox:replay"
)

// Roles
const (
	RoleUser        = "user"
	RoleCoordinator = "coordinator"
	RoleAdmin       = "admin"
)

var rolePermissions = map[string][]string{
	RoleUser: {
		PermissionSubmitRequest,
		PermissionReadFeed,
		PermissionDeleteOwnRequest,
		PermissionClassify,
	},
	RoleCoordinator: {
		PermissionSubmitRequest,
		PermissionReadFeed,
		PermissionDeleteOwnRequest,
		PermissionDeleteAnyRequest,
		PermissionClassify,
	},
	RoleAdmin: {
		PermissionSubmitRequest,
		PermissionReadFeed,
		PermissionDeleteOwnRequest,
		PermissionDeleteAnyRequest,
		PermissionClassify,
		PermissionReplayOutbox,
	},
}

// IsValidRole reports whether role is one of the known roles.
func IsValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// HasPermission checks whether role grants permission. Unknown roles have none.
func HasPermission(role, permission string) bool {
	return slices.Contains(rolePermissions[role], permission)
}

// CheckPermission is HasPermission returning an error.
func CheckPermission(role, permission string) error {
	if !HasPermission(role, permission) {
		return &PermissionDeniedError{
			Role:       role,
			Permission: permission,
		}
	}
	return nil
}

type PermissionDeniedError struct {
	Role       string
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	return "insufficient permissions"
}
