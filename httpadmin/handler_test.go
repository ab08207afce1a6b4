package httpadmin_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/rolegate/rolegate"
	"github.com/rolegate/rolegate/httpadmin"
	"github.com/rolegate/rolegate/store/memory"
)

func newServer(t *testing.T) (http.Handler, *rolegate.ACL) {
	t.Helper()
	acl := rolegate.New(memory.New())
	r := chi.NewRouter()
	httpadmin.NewHandler(nil, acl).MountRoutes(r)
	return r, acl
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateAndListPermissions(t *testing.T) {
	h, _ := newServer(t)

	rec := doJSON(t, h, http.MethodPost, "/permissions", `{"name":"Show Users","description":"list users"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "show-users", created.Name)
	require.NotZero(t, created.ID)

	rec = doJSON(t, h, http.MethodGet, "/permissions", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
}

func TestCreateRoleIdempotentStatus(t *testing.T) {
	h, _ := newServer(t)

	rec := doJSON(t, h, http.MethodPost, "/roles", `{"name":"admin"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var first struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	require.NotZero(t, first.ID)

	// Re-creating an existing role answers 200 with the existing row.
	rec = doJSON(t, h, http.MethodPost, "/roles", `{"name":"admin"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var second struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	require.Equal(t, first.ID, second.ID)
}

func TestCreatePermissionUnknownField(t *testing.T) {
	h, _ := newServer(t)

	rec := doJSON(t, h, http.MethodPost, "/permissions", `{"name":"a","descriptoin":"typo"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePermissionValidation(t *testing.T) {
	h, _ := newServer(t)

	rec := doJSON(t, h, http.MethodPost, "/permissions", `{"description":"no name"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdatePermissionNotFound(t *testing.T) {
	h, _ := newServer(t)

	rec := doJSON(t, h, http.MethodPatch, "/permissions/missing", `{"description":"x"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoleLifecycle(t *testing.T) {
	h, _ := newServer(t)

	rec := doJSON(t, h, http.MethodPost, "/roles", `{"name":"admin"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/roles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var roles []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &roles))
	require.Len(t, roles, 1)

	rec = doJSON(t, h, http.MethodDelete, "/roles/admin", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/roles", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &roles))
	require.Empty(t, roles)

	rec = doJSON(t, h, http.MethodDelete, "/roles/admin", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGrantRevokeCheck(t *testing.T) {
	h, acl := newServer(t)
	ctx := context.Background()

	_, err := acl.Permissions().Create(ctx, "view-users", "")
	require.NoError(t, err)
	_, err = acl.Roles().Create(ctx, "admin")
	require.NoError(t, err)

	rec := doJSON(t, h, http.MethodPost, "/roles/admin/permissions", `{"permissions":["view-users","edit-users"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"granted":1}`, rec.Body.String())

	rec = doJSON(t, h, http.MethodGet, "/roles/admin/permissions/view-users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"allowed":true}`, rec.Body.String())

	rec = doJSON(t, h, http.MethodDelete, "/roles/admin/permissions", `{"permissions":["view-users"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"revoked":1}`, rec.Body.String())

	rec = doJSON(t, h, http.MethodGet, "/roles/admin/permissions/view-users", "")
	require.JSONEq(t, `{"allowed":false}`, rec.Body.String())
}

func TestGrantUnknownRole(t *testing.T) {
	h, _ := newServer(t)

	rec := doJSON(t, h, http.MethodPost, "/roles/ghost/permissions", `{"permissions":["view-users"]}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGrantEmptyPermissionList(t *testing.T) {
	h, _ := newServer(t)

	rec := doJSON(t, h, http.MethodPost, "/roles/admin/permissions", `{"permissions":[]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckUnknownRoleAnswersFalse(t *testing.T) {
	h, _ := newServer(t)

	rec := doJSON(t, h, http.MethodGet, "/roles/ghost/permissions/view-users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"allowed":false}`, rec.Body.String())
}
