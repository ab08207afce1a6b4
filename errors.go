package rolegate

import "errors"

var (
	// ErrInvalidPermissions indicates Allow/Disallow received no usable
	// permission labels. Raised before any storage access.
	ErrInvalidPermissions = errors.New("rolegate: permission or list of permissions required")
	// ErrRoleNotFound indicates no active role matches the given name.
	ErrRoleNotFound = errors.New("rolegate: role not found")
	// ErrPermissionNotFound indicates no permission matches the given name.
	ErrPermissionNotFound = errors.New("rolegate: permission not found")
)
