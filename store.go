package rolegate

import "context"

// PermissionPatch describes a partial permission update. Nil fields are left
// unchanged.
type PermissionPatch struct {
	Name        *string
	Description *string
}

// RolePatch describes a partial role update. Nil fields are left unchanged.
type RolePatch struct {
	Name *string
}

// Store is the storage boundary the catalogs and the association engine work
// against. Drivers live under store/; store/postgres is the production driver
// and store/memory backs tests and lightweight embedding.
//
// Read misses return ErrPermissionNotFound / ErrRoleNotFound. Role reads and
// updates see active rows only (deleted_at unset).
type Store interface {
	InsertPermission(ctx context.Context, name, description string) (Permission, error)
	FindPermissionByName(ctx context.Context, name string) (Permission, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	UpdatePermission(ctx context.Context, name string, patch PermissionPatch) (Permission, error)
	ClearPermissions(ctx context.Context) error
	// PermissionIDsByName resolves canonical names to ids; names not present
	// in the catalog are omitted from the result.
	PermissionIDsByName(ctx context.Context, names []string) ([]int64, error)

	InsertRole(ctx context.Context, name string) (Role, error)
	FindRoleByName(ctx context.Context, name string) (Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
	UpdateRole(ctx context.Context, name string, patch RolePatch) (Role, error)
	SoftDeleteRole(ctx context.Context, name string) error
	ClearRoles(ctx context.Context) error

	GrantedPermissionIDs(ctx context.Context, roleID int64) ([]int64, error)
	// InsertGrants writes one association row per permission id and returns
	// the number of rows actually inserted. Ids already associated with the
	// role, including ones granted by a concurrent caller, are skipped rather
	// than treated as an error.
	InsertGrants(ctx context.Context, roleID int64, permissionIDs []int64) (int64, error)
	DeleteGrants(ctx context.Context, roleID int64, permissionIDs []int64) (int64, error)
	// CountGrants counts association rows joining role and permission by
	// name. Soft-deleted roles yield zero.
	CountGrants(ctx context.Context, roleName, permissionName string) (int64, error)
}

// Migrator is implemented by stores that manage their own schema.
type Migrator interface {
	Migrate(ctx context.Context) error
}
