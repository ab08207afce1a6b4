// Package postgres provides the PostgreSQL Store driver.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rolegate/rolegate"
)

const uniqueViolation = "23505"

// Connect creates a new PostgreSQL connection pool and verifies it.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("store/postgres: parse config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("store/postgres: new pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store/postgres: ping: %w", err)
	}

	return pool, nil
}

// Store implements rolegate.Store on a pgx pool. All table names carry the
// configured prefix.
type Store struct {
	pool   *pgxpool.Pool
	prefix string
}

var _ rolegate.Store = (*Store)(nil)
var _ rolegate.Migrator = (*Store)(nil)

// New constructs a Store. An empty prefix falls back to
// rolegate.DefaultTablePrefix.
func New(pool *pgxpool.Pool, prefix string) *Store {
	if prefix == "" {
		prefix = rolegate.DefaultTablePrefix
	}
	return &Store{pool: pool, prefix: prefix}
}

func (s *Store) table(name string) string {
	return pgx.Identifier{s.prefix + name}.Sanitize()
}

func (s *Store) InsertPermission(ctx context.Context, name, description string) (rolegate.Permission, error) {
	q := fmt.Sprintf(`INSERT INTO %s (name, description) VALUES ($1, $2) RETURNING id, name, description`, s.table("permissions"))

	var perm rolegate.Permission
	err := s.pool.QueryRow(ctx, q, name, description).Scan(&perm.ID, &perm.Name, &perm.Description)
	if err != nil {
		// A concurrent caller may have created the same name; the unique
		// constraint is the backstop, the winner's row is the result.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return s.FindPermissionByName(ctx, name)
		}
		return rolegate.Permission{}, fmt.Errorf("store/postgres: insert permission: %w", err)
	}
	return perm, nil
}

func (s *Store) FindPermissionByName(ctx context.Context, name string) (rolegate.Permission, error) {
	q := fmt.Sprintf(`SELECT id, name, COALESCE(description, '') FROM %s WHERE name = $1`, s.table("permissions"))

	var perm rolegate.Permission
	err := s.pool.QueryRow(ctx, q, name).Scan(&perm.ID, &perm.Name, &perm.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return rolegate.Permission{}, rolegate.ErrPermissionNotFound
	}
	if err != nil {
		return rolegate.Permission{}, fmt.Errorf("store/postgres: find permission: %w", err)
	}
	return perm, nil
}

func (s *Store) ListPermissions(ctx context.Context) ([]rolegate.Permission, error) {
	q := fmt.Sprintf(`SELECT id, name, COALESCE(description, '') FROM %s`, s.table("permissions"))

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("store/postgres: list permissions: %w", err)
	}
	defer rows.Close()

	var perms []rolegate.Permission
	for rows.Next() {
		var perm rolegate.Permission
		if err := rows.Scan(&perm.ID, &perm.Name, &perm.Description); err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

func (s *Store) UpdatePermission(ctx context.Context, name string, patch rolegate.PermissionPatch) (rolegate.Permission, error) {
	set := make([]string, 0, 2)
	args := []any{name}
	if patch.Name != nil {
		args = append(args, *patch.Name)
		set = append(set, fmt.Sprintf("name = $%d", len(args)))
	}
	if patch.Description != nil {
		args = append(args, *patch.Description)
		set = append(set, fmt.Sprintf("description = $%d", len(args)))
	}
	if len(set) == 0 {
		return s.FindPermissionByName(ctx, name)
	}

	q := fmt.Sprintf(`UPDATE %s SET %s WHERE name = $1 RETURNING id, name, COALESCE(description, '')`,
		s.table("permissions"), strings.Join(set, ", "))

	var perm rolegate.Permission
	err := s.pool.QueryRow(ctx, q, args...).Scan(&perm.ID, &perm.Name, &perm.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return rolegate.Permission{}, rolegate.ErrPermissionNotFound
	}
	if err != nil {
		return rolegate.Permission{}, fmt.Errorf("store/postgres: update permission: %w", err)
	}
	return perm, nil
}

func (s *Store) ClearPermissions(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s`, s.table("permissions")))
	if err != nil {
		return fmt.Errorf("store/postgres: clear permissions: %w", err)
	}
	return nil
}

func (s *Store) PermissionIDsByName(ctx context.Context, names []string) ([]int64, error) {
	q := fmt.Sprintf(`SELECT id FROM %s WHERE name = ANY($1)`, s.table("permissions"))

	rows, err := s.pool.Query(ctx, q, names)
	if err != nil {
		return nil, fmt.Errorf("store/postgres: permission ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) InsertRole(ctx context.Context, name string) (rolegate.Role, error) {
	q := fmt.Sprintf(`INSERT INTO %s (name) VALUES ($1) RETURNING id, name, created_at`, s.table("roles"))

	var role rolegate.Role
	err := s.pool.QueryRow(ctx, q, name).Scan(&role.ID, &role.Name, &role.CreatedAt)
	if err != nil {
		return rolegate.Role{}, fmt.Errorf("store/postgres: insert role: %w", err)
	}
	return role, nil
}

func (s *Store) FindRoleByName(ctx context.Context, name string) (rolegate.Role, error) {
	q := fmt.Sprintf(`SELECT id, name, created_at FROM %s WHERE name = $1 AND deleted_at IS NULL LIMIT 1`, s.table("roles"))

	var role rolegate.Role
	err := s.pool.QueryRow(ctx, q, name).Scan(&role.ID, &role.Name, &role.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return rolegate.Role{}, rolegate.ErrRoleNotFound
	}
	if err != nil {
		return rolegate.Role{}, fmt.Errorf("store/postgres: find role: %w", err)
	}
	return role, nil
}

func (s *Store) ListRoles(ctx context.Context) ([]rolegate.Role, error) {
	q := fmt.Sprintf(`SELECT id, name, created_at FROM %s WHERE deleted_at IS NULL`, s.table("roles"))

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("store/postgres: list roles: %w", err)
	}
	defer rows.Close()

	var roles []rolegate.Role
	for rows.Next() {
		var role rolegate.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.CreatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (s *Store) UpdateRole(ctx context.Context, name string, patch rolegate.RolePatch) (rolegate.Role, error) {
	if patch.Name == nil {
		return s.FindRoleByName(ctx, name)
	}

	q := fmt.Sprintf(`UPDATE %s SET name = $2 WHERE name = $1 AND deleted_at IS NULL RETURNING id, name, created_at`, s.table("roles"))

	var role rolegate.Role
	err := s.pool.QueryRow(ctx, q, name, *patch.Name).Scan(&role.ID, &role.Name, &role.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return rolegate.Role{}, rolegate.ErrRoleNotFound
	}
	if err != nil {
		return rolegate.Role{}, fmt.Errorf("store/postgres: update role: %w", err)
	}
	return role, nil
}

func (s *Store) SoftDeleteRole(ctx context.Context, name string) error {
	q := fmt.Sprintf(`UPDATE %s SET deleted_at = now() WHERE name = $1 AND deleted_at IS NULL`, s.table("roles"))

	tag, err := s.pool.Exec(ctx, q, name)
	if err != nil {
		return fmt.Errorf("store/postgres: soft delete role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return rolegate.ErrRoleNotFound
	}
	return nil
}

func (s *Store) ClearRoles(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s`, s.table("roles")))
	if err != nil {
		return fmt.Errorf("store/postgres: clear roles: %w", err)
	}
	return nil
}

func (s *Store) GrantedPermissionIDs(ctx context.Context, roleID int64) ([]int64, error) {
	q := fmt.Sprintf(`SELECT permissions_id FROM %s WHERE roles_id = $1`, s.table("roles_permissions"))

	rows, err := s.pool.Query(ctx, q, roleID)
	if err != nil {
		return nil, fmt.Errorf("store/postgres: granted ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// InsertGrants writes the associations in one round trip. ON CONFLICT DO
// NOTHING makes a lost race against a concurrent grant benign; the command
// tag reports only rows actually inserted.
func (s *Store) InsertGrants(ctx context.Context, roleID int64, permissionIDs []int64) (int64, error) {
	q := fmt.Sprintf(`INSERT INTO %s (roles_id, permissions_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT (roles_id, permissions_id) DO NOTHING`, s.table("roles_permissions"))

	tag, err := s.pool.Exec(ctx, q, roleID, permissionIDs)
	if err != nil {
		return 0, fmt.Errorf("store/postgres: insert grants: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) DeleteGrants(ctx context.Context, roleID int64, permissionIDs []int64) (int64, error) {
	q := fmt.Sprintf(`DELETE FROM %s WHERE roles_id = $1 AND permissions_id = ANY($2)`, s.table("roles_permissions"))

	tag, err := s.pool.Exec(ctx, q, roleID, permissionIDs)
	if err != nil {
		return 0, fmt.Errorf("store/postgres: delete grants: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) CountGrants(ctx context.Context, roleName, permissionName string) (int64, error) {
	q := fmt.Sprintf(`SELECT count(g.id)
		FROM %s g
		JOIN %s r ON r.id = g.roles_id
		JOIN %s p ON p.id = g.permissions_id
		WHERE r.name = $1 AND r.deleted_at IS NULL AND p.name = $2`,
		s.table("roles_permissions"), s.table("roles"), s.table("permissions"))

	var n int64
	if err := s.pool.QueryRow(ctx, q, roleName, permissionName).Scan(&n); err != nil {
		return 0, fmt.Errorf("store/postgres: count grants: %w", err)
	}
	return n, nil
}
