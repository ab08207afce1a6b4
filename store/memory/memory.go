// Package memory provides an in-process Store for tests and lightweight
// embedding. Semantics match the postgres driver, including soft-delete
// visibility and grant uniqueness.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/rolegate/rolegate"
)

type grantRow struct {
	id     int64
	roleID int64
	permID int64
}

// Store keeps the catalogs and grants in memory behind a single mutex.
type Store struct {
	mu sync.Mutex

	perms  []rolegate.Permission
	roles  []rolegate.Role
	grants []grantRow

	nextPermID  int64
	nextRoleID  int64
	nextGrantID int64
}

var _ rolegate.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Migrate is a no-op; the store has no schema.
func (s *Store) Migrate(ctx context.Context) error { return nil }

func (s *Store) InsertPermission(ctx context.Context, name, description string) (rolegate.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Uniqueness on name mirrors the relational constraint: a concurrent
	// insert loser gets the winner's row back.
	for _, p := range s.perms {
		if p.Name == name {
			return p, nil
		}
	}

	s.nextPermID++
	perm := rolegate.Permission{ID: s.nextPermID, Name: name, Description: description}
	s.perms = append(s.perms, perm)
	return perm, nil
}

func (s *Store) FindPermissionByName(ctx context.Context, name string) (rolegate.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.perms {
		if p.Name == name {
			return p, nil
		}
	}
	return rolegate.Permission{}, rolegate.ErrPermissionNotFound
}

func (s *Store) ListPermissions(ctx context.Context) ([]rolegate.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]rolegate.Permission, len(s.perms))
	copy(out, s.perms)
	return out, nil
}

func (s *Store) UpdatePermission(ctx context.Context, name string, patch rolegate.PermissionPatch) (rolegate.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.perms {
		if s.perms[i].Name != name {
			continue
		}
		if patch.Name != nil {
			s.perms[i].Name = *patch.Name
		}
		if patch.Description != nil {
			s.perms[i].Description = *patch.Description
		}
		return s.perms[i], nil
	}
	return rolegate.Permission{}, rolegate.ErrPermissionNotFound
}

func (s *Store) ClearPermissions(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Cascade, as the FK does in postgres.
	s.perms = nil
	s.grants = nil
	return nil
}

func (s *Store) PermissionIDsByName(ctx context.Context, names []string) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}
	var ids []int64
	for _, p := range s.perms {
		if _, ok := want[p.Name]; ok {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (s *Store) InsertRole(ctx context.Context, name string) (rolegate.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextRoleID++
	role := rolegate.Role{ID: s.nextRoleID, Name: name, CreatedAt: time.Now()}
	s.roles = append(s.roles, role)
	return role, nil
}

func (s *Store) FindRoleByName(ctx context.Context, name string) (rolegate.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.roles {
		if r.Name == name && r.DeletedAt == nil {
			return r, nil
		}
	}
	return rolegate.Role{}, rolegate.ErrRoleNotFound
}

func (s *Store) ListRoles(ctx context.Context) ([]rolegate.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []rolegate.Role
	for _, r := range s.roles {
		if r.DeletedAt == nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) UpdateRole(ctx context.Context, name string, patch rolegate.RolePatch) (rolegate.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.roles {
		if s.roles[i].Name != name || s.roles[i].DeletedAt != nil {
			continue
		}
		if patch.Name != nil {
			s.roles[i].Name = *patch.Name
		}
		return s.roles[i], nil
	}
	return rolegate.Role{}, rolegate.ErrRoleNotFound
}

func (s *Store) SoftDeleteRole(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.roles {
		if s.roles[i].Name != name || s.roles[i].DeletedAt != nil {
			continue
		}
		now := time.Now()
		s.roles[i].DeletedAt = &now
		return nil
	}
	return rolegate.ErrRoleNotFound
}

func (s *Store) ClearRoles(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.roles = nil
	s.grants = nil
	return nil
}

func (s *Store) GrantedPermissionIDs(ctx context.Context, roleID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []int64
	for _, g := range s.grants {
		if g.roleID == roleID {
			ids = append(ids, g.permID)
		}
	}
	return ids, nil
}

func (s *Store) InsertGrants(ctx context.Context, roleID int64, permissionIDs []int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	have := make(map[int64]struct{})
	for _, g := range s.grants {
		if g.roleID == roleID {
			have[g.permID] = struct{}{}
		}
	}

	var inserted int64
	for _, id := range permissionIDs {
		if _, ok := have[id]; ok {
			continue
		}
		s.nextGrantID++
		s.grants = append(s.grants, grantRow{id: s.nextGrantID, roleID: roleID, permID: id})
		have[id] = struct{}{}
		inserted++
	}
	return inserted, nil
}

func (s *Store) DeleteGrants(ctx context.Context, roleID int64, permissionIDs []int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[int64]struct{}, len(permissionIDs))
	for _, id := range permissionIDs {
		drop[id] = struct{}{}
	}

	var removed int64
	kept := s.grants[:0]
	for _, g := range s.grants {
		if g.roleID == roleID {
			if _, ok := drop[g.permID]; ok {
				removed++
				continue
			}
		}
		kept = append(kept, g)
	}
	s.grants = kept
	return removed, nil
}

func (s *Store) CountGrants(ctx context.Context, roleName, permissionName string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var role *rolegate.Role
	for i := range s.roles {
		if s.roles[i].Name == roleName && s.roles[i].DeletedAt == nil {
			role = &s.roles[i]
			break
		}
	}
	if role == nil {
		return 0, nil
	}

	perm := s.permByNameLocked(permissionName)
	if perm == nil {
		return 0, nil
	}

	var n int64
	for _, g := range s.grants {
		if g.roleID == role.ID && g.permID == perm.ID {
			n++
		}
	}
	return n, nil
}

func (s *Store) permByNameLocked(name string) *rolegate.Permission {
	for i := range s.perms {
		if s.perms[i].Name == name {
			return &s.perms[i]
		}
	}
	return nil
}
