package rolegate

import "context"

// ACL composes the catalogs and the association engine behind one entry
// point. Construct it once per process with a storage driver and share it;
// it holds no mutable state of its own.
type ACL struct {
	store       Store
	roles       Roles
	permissions Permissions
}

// New builds an ACL over the given storage driver.
func New(store Store) *ACL {
	return &ACL{
		store:       store,
		roles:       Roles{store: store},
		permissions: Permissions{store: store},
	}
}

// Migrate brings the underlying schema up to date, delegating to the driver.
// Drivers without schema management (store/memory) make this a no-op.
func (a *ACL) Migrate(ctx context.Context) error {
	if m, ok := a.store.(Migrator); ok {
		return m.Migrate(ctx)
	}
	return nil
}

// Roles returns the role catalog.
func (a *ACL) Roles() *Roles { return &a.roles }

// Permissions returns the permission catalog.
func (a *ACL) Permissions() *Permissions { return &a.permissions }

// Role returns a grants handle bound to name without touching storage. The
// role is resolved lazily on the first mutating or query call.
func (a *ACL) Role(name string) *RoleGrants {
	return &RoleGrants{name: name, store: a.store}
}
