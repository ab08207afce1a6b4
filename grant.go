package rolegate

import (
	"context"

	"github.com/rolegate/rolegate/slug"
)

// RoleGrants mutates and queries the set of permissions granted to one role.
// A handle is bound to a role name; resolution to the underlying row happens
// lazily, on the first call that needs an id, so constructing a handle for a
// role that does not exist yet never fails.
type RoleGrants struct {
	name  string
	id    int64
	bound bool

	store Store
}

func boundGrants(role Role, store Store) *RoleGrants {
	return &RoleGrants{name: role.Name, id: role.ID, bound: true, store: store}
}

// Name returns the role name the handle was constructed with (or the resolved
// name after the first successful operation).
func (g *RoleGrants) Name() string { return g.name }

// ID returns the resolved role id, or zero while the handle is still
// unresolved.
func (g *RoleGrants) ID() int64 { return g.id }

// resolve binds the handle to its active role row, caching the id for the
// handle's lifetime. Returns ErrRoleNotFound when no active role matches.
func (g *RoleGrants) resolve(ctx context.Context) error {
	if g.bound {
		return nil
	}
	role, err := g.store.FindRoleByName(ctx, g.name)
	if err != nil {
		return err
	}
	g.name = role.Name
	g.id = role.ID
	g.bound = true
	return nil
}

// Allow grants the named permissions to the role and returns how many were
// newly granted. Each argument may be a single label or a comma-separated
// list. Labels are canonicalized; names not present in the permission catalog
// are silently dropped, and permissions the role already holds are skipped,
// so repeating a call with overlapping sets is a cheap no-op.
//
// Returns ErrInvalidPermissions before any storage access when no usable
// label was supplied, and ErrRoleNotFound when the role does not exist.
func (g *RoleGrants) Allow(ctx context.Context, perms ...string) (int, error) {
	names := canonicalNames(splitLabels(perms))
	if len(names) == 0 {
		return 0, ErrInvalidPermissions
	}

	if err := g.resolve(ctx); err != nil {
		return 0, err
	}

	requested, err := g.store.PermissionIDsByName(ctx, names)
	if err != nil {
		return 0, err
	}
	if len(requested) == 0 {
		return 0, nil
	}

	granted, err := g.store.GrantedPermissionIDs(ctx, g.id)
	if err != nil {
		return 0, err
	}
	have := make(map[int64]struct{}, len(granted))
	for _, id := range granted {
		have[id] = struct{}{}
	}

	missing := requested[:0]
	for _, id := range requested {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}

	n, err := g.store.InsertGrants(ctx, g.id, missing)
	return int(n), err
}

// Disallow revokes the named permissions from the role and returns how many
// association rows were removed. Argument handling matches Allow: labels are
// split, canonicalized, and matched against the permission catalog, so
// revoking an unknown or never-granted permission is a harmless no-op.
func (g *RoleGrants) Disallow(ctx context.Context, perms ...string) (int, error) {
	names := canonicalNames(splitLabels(perms))
	if len(names) == 0 {
		return 0, ErrInvalidPermissions
	}

	if err := g.resolve(ctx); err != nil {
		return 0, err
	}

	ids, err := g.store.PermissionIDsByName(ctx, names)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	n, err := g.store.DeleteGrants(ctx, g.id, ids)
	return int(n), err
}

// HasPermission reports whether the role currently holds the permission. The
// role is matched by name directly in the query, so the handle need not be
// resolved, and neither the role nor the permission is required to exist: a
// miss on either side answers false, never an error. Soft-deleted roles
// answer false even though their grant rows are still in storage.
func (g *RoleGrants) HasPermission(ctx context.Context, permission string) (bool, error) {
	name := slug.Make(permission)
	if name == "" {
		return false, nil
	}
	n, err := g.store.CountGrants(ctx, g.name, name)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Can is an alias of HasPermission.
func (g *RoleGrants) Can(ctx context.Context, permission string) (bool, error) {
	return g.HasPermission(ctx, permission)
}
