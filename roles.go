package rolegate

import (
	"context"
	"errors"
)

// Roles is the role catalog. Unlike permissions, role names are stored as
// given; soft-deleted roles are invisible to every read here.
type Roles struct {
	store Store
}

// Create registers a role and returns a grants handle bound to it. If an
// active role with that name already exists the handle is bound to the
// existing row; creation is idempotent.
func (r *Roles) Create(ctx context.Context, name string) (*RoleGrants, error) {
	existing, err := r.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return boundGrants(*existing, r.store), nil
	}

	role, err := r.store.InsertRole(ctx, name)
	if err != nil {
		return nil, err
	}
	return boundGrants(role, r.store), nil
}

// FindByName looks an active role up by name. Absence is not an error: a nil
// Role with a nil error means no active match.
func (r *Roles) FindByName(ctx context.Context, name string) (*Role, error) {
	role, err := r.store.FindRoleByName(ctx, name)
	if errors.Is(err, ErrRoleNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// List returns every active role.
func (r *Roles) List(ctx context.Context) ([]Role, error) {
	return r.store.ListRoles(ctx)
}

// Update applies patch to the active role matching name and returns a grants
// handle bound to the result. Returns ErrRoleNotFound when no active role
// matches.
func (r *Roles) Update(ctx context.Context, name string, patch RolePatch) (*RoleGrants, error) {
	role, err := r.store.UpdateRole(ctx, name, patch)
	if err != nil {
		return nil, err
	}
	return boundGrants(role, r.store), nil
}

// Delete soft-deletes the active role matching name by stamping deleted_at.
// The row and its association rows stay in storage until hard-deleted.
// Returns ErrRoleNotFound when no active role matches.
func (r *Roles) Delete(ctx context.Context, name string) error {
	return r.store.SoftDeleteRole(ctx, name)
}

// Clear removes every role unconditionally. Intended for test fixtures and
// resets, not production use.
func (r *Roles) Clear(ctx context.Context) error {
	return r.store.ClearRoles(ctx)
}
