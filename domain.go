// Package rolegate is an embeddable role-based access control engine backed by
// relational storage. It manages a flat, two-level grant store: permissions,
// roles, and role-to-permission associations.
package rolegate

import "time"

// Permission is an atomic capability. Name is always the canonical slug of
// whatever label was supplied when the permission was created or updated.
type Permission struct {
	ID          int64
	Name        string
	Description string
}

// Role groups permissions. A role is soft-deleted by setting DeletedAt;
// catalog reads exclude soft-deleted rows.
type Role struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	DeletedAt *time.Time
}
