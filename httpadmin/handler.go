// Package httpadmin exposes the catalogs and the grant engine as a JSON API,
// for wiring into a host application's admin router.
package httpadmin

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/rolegate/rolegate"
	"github.com/rolegate/rolegate/internal/httpx"
)

// Handler serves the admin endpoints.
type Handler struct {
	logger   *slog.Logger
	acl      *rolegate.ACL
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, acl *rolegate.ACL) *Handler {
	return &Handler{
		logger:   logger,
		acl:      acl,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// MountRoutes registers the admin routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/permissions", func(r chi.Router) {
		r.Get("/", h.listPermissions)
		r.Post("/", h.createPermission)
		r.Patch("/{name}", h.updatePermission)
	})
	r.Route("/roles", func(r chi.Router) {
		r.Get("/", h.listRoles)
		r.Post("/", h.createRole)
		r.Patch("/{name}", h.updateRole)
		r.Delete("/{name}", h.deleteRole)
		r.Post("/{name}/permissions", h.grantPermissions)
		r.Delete("/{name}/permissions", h.revokePermissions)
		r.Get("/{name}/permissions/{permission}", h.checkPermission)
	})
}

type permissionResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type roleResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func toPermissionResponse(p rolegate.Permission) permissionResponse {
	return permissionResponse{ID: p.ID, Name: p.Name, Description: p.Description}
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.acl.Permissions().List(r.Context())
	if err != nil {
		h.fail(w, r, "list permissions", err)
		return
	}
	out := make([]permissionResponse, 0, len(perms))
	for _, p := range perms {
		out = append(out, toPermissionResponse(p))
	}
	httpx.JSON(w, http.StatusOK, out)
}

type createPermissionRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (h *Handler) createPermission(w http.ResponseWriter, r *http.Request) {
	var req createPermissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, httpx.TypeMalformedBody, "Malformed Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	perm, err := h.acl.Permissions().Create(r.Context(), req.Name, req.Description)
	if err != nil {
		h.fail(w, r, "create permission", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPermissionResponse(perm))
}

type updatePermissionRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *Handler) updatePermission(w http.ResponseWriter, r *http.Request) {
	var req updatePermissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, httpx.TypeMalformedBody, "Malformed Body", err.Error())
		return
	}

	perm, err := h.acl.Permissions().Update(r.Context(), chi.URLParam(r, "name"), rolegate.PermissionPatch{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.fail(w, r, "update permission", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPermissionResponse(perm))
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.acl.Roles().List(r.Context())
	if err != nil {
		h.fail(w, r, "list roles", err)
		return
	}
	out := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, roleResponse{ID: role.ID, Name: role.Name})
	}
	httpx.JSON(w, http.StatusOK, out)
}

type createRoleRequest struct {
	Name string `json:"name" validate:"required"`
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, httpx.TypeMalformedBody, "Malformed Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	// Creation is idempotent; report whether this call made the role.
	existing, err := h.acl.Roles().FindByName(r.Context(), req.Name)
	if err != nil {
		h.fail(w, r, "create role", err)
		return
	}
	if existing != nil {
		httpx.JSON(w, http.StatusOK, roleResponse{ID: existing.ID, Name: existing.Name})
		return
	}

	handle, err := h.acl.Roles().Create(r.Context(), req.Name)
	if err != nil {
		h.fail(w, r, "create role", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, roleResponse{ID: handle.ID(), Name: handle.Name()})
}

type updateRoleRequest struct {
	Name *string `json:"name"`
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	var req updateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, httpx.TypeMalformedBody, "Malformed Body", err.Error())
		return
	}

	handle, err := h.acl.Roles().Update(r.Context(), chi.URLParam(r, "name"), rolegate.RolePatch{Name: req.Name})
	if err != nil {
		h.fail(w, r, "update role", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"name": handle.Name()})
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	if err := h.acl.Roles().Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		h.fail(w, r, "delete role", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type grantRequest struct {
	Permissions []string `json:"permissions" validate:"required,min=1,dive,required"`
}

func (h *Handler) grantPermissions(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, httpx.TypeMalformedBody, "Malformed Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	n, err := h.acl.Role(chi.URLParam(r, "name")).Allow(r.Context(), req.Permissions...)
	if err != nil {
		h.fail(w, r, "grant permissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"granted": n})
}

func (h *Handler) revokePermissions(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, httpx.TypeMalformedBody, "Malformed Body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	n, err := h.acl.Role(chi.URLParam(r, "name")).Disallow(r.Context(), req.Permissions...)
	if err != nil {
		h.fail(w, r, "revoke permissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"revoked": n})
}

func (h *Handler) checkPermission(w http.ResponseWriter, r *http.Request) {
	allowed, err := h.acl.Role(chi.URLParam(r, "name")).Can(r.Context(), chi.URLParam(r, "permission"))
	if err != nil {
		h.fail(w, r, "check permission", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"allowed": allowed})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if h.logger != nil {
		h.logger.Error(op, slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
