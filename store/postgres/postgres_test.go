package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rolegate/rolegate"
	"github.com/rolegate/rolegate/store/postgres"
)

// newTestACL connects to the database named by ROLEGATE_TEST_PG_DSN, applies
// the migrations under a test-scoped table prefix, and wipes the tables when
// the test ends. Skipped when no DSN is configured.
func newTestACL(t *testing.T) *rolegate.ACL {
	t.Helper()

	dsn := os.Getenv("ROLEGATE_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("ROLEGATE_TEST_PG_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	pool, err := postgres.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store := postgres.New(pool, "ACLTEST_")
	acl := rolegate.New(store)
	require.NoError(t, acl.Migrate(ctx))

	t.Cleanup(func() {
		_ = acl.Roles().Clear(context.Background())
		_ = acl.Permissions().Clear(context.Background())
	})
	return acl
}

func TestPostgresGrantFlow(t *testing.T) {
	acl := newTestACL(t)
	ctx := context.Background()

	perm, err := acl.Permissions().Create(ctx, "Show Users", "")
	require.NoError(t, err)
	require.Equal(t, "show-users", perm.Name)

	// Idempotent create across surface forms.
	again, err := acl.Permissions().Create(ctx, "show users", "")
	require.NoError(t, err)
	require.Equal(t, perm.ID, again.ID)

	admin, err := acl.Roles().Create(ctx, "admin")
	require.NoError(t, err)

	n, err := admin.Allow(ctx, "show-users")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// Re-allowing writes nothing; the unique constraint never trips because
	// the delta is computed first and the insert ignores conflicts.
	n, err = admin.Allow(ctx, "show-users")
	require.NoError(t, err)
	require.Equal(t, 0, n)

	ok, err := admin.Can(ctx, "Show Users")
	require.NoError(t, err)
	require.True(t, ok)

	n, err = admin.Disallow(ctx, "show-users")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	ok, err = admin.Can(ctx, "show-users")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPostgresSoftDelete(t *testing.T) {
	acl := newTestACL(t)
	ctx := context.Background()

	_, err := acl.Permissions().Create(ctx, "show-users", "")
	require.NoError(t, err)
	admin, err := acl.Roles().Create(ctx, "admin")
	require.NoError(t, err)
	_, err = admin.Allow(ctx, "show-users")
	require.NoError(t, err)

	require.NoError(t, acl.Roles().Delete(ctx, "admin"))

	role, err := acl.Roles().FindByName(ctx, "admin")
	require.NoError(t, err)
	require.Nil(t, role)

	ok, err := acl.Role("admin").Can(ctx, "show-users")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPostgresMigrateIdempotent(t *testing.T) {
	acl := newTestACL(t)
	require.NoError(t, acl.Migrate(context.Background()))
}
