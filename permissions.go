package rolegate

import (
	"context"
	"errors"
	"strings"

	"github.com/rolegate/rolegate/slug"
)

// Permissions is the permission catalog. All names pass through the
// canonicalizer on the way in, so "Show Users" and "show-users" address the
// same permission.
type Permissions struct {
	store Store
}

// Create registers a permission under the canonical form of name. If a
// permission with that canonical name already exists it is returned unchanged;
// creation is idempotent and has no duplicate-name error path.
func (p *Permissions) Create(ctx context.Context, name, description string) (Permission, error) {
	canonical := slug.Make(name)

	existing, err := p.FindByName(ctx, canonical)
	if err != nil {
		return Permission{}, err
	}
	if existing != nil {
		return *existing, nil
	}

	return p.store.InsertPermission(ctx, canonical, description)
}

// FindByName looks a permission up by canonical name. Absence is not an
// error: a nil Permission with a nil error means no match.
func (p *Permissions) FindByName(ctx context.Context, name string) (*Permission, error) {
	perm, err := p.store.FindPermissionByName(ctx, slug.Make(name))
	if errors.Is(err, ErrPermissionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &perm, nil
}

// List returns every permission in the catalog.
func (p *Permissions) List(ctx context.Context) ([]Permission, error) {
	return p.store.ListPermissions(ctx)
}

// Update applies patch to the permission matching name. A new name in the
// patch is canonicalized before it is written. Returns ErrPermissionNotFound
// when no permission matches.
func (p *Permissions) Update(ctx context.Context, name string, patch PermissionPatch) (Permission, error) {
	if patch.Name != nil {
		canonical := slug.Make(*patch.Name)
		patch.Name = &canonical
	}
	return p.store.UpdatePermission(ctx, slug.Make(name), patch)
}

// Clear removes every permission unconditionally. Intended for test fixtures
// and resets, not production use.
func (p *Permissions) Clear(ctx context.Context) error {
	return p.store.ClearPermissions(ctx)
}

// canonicalNames slugs each label, dropping empties and duplicates while
// preserving first-seen order.
func canonicalNames(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		s := slug.Make(label)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// splitLabels normalizes the caller-facing permission arguments: each element
// may itself be a comma-separated list.
func splitLabels(perms []string) []string {
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		for _, part := range strings.Split(p, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
