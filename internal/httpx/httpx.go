// Package httpx maps the rolegate error taxonomy onto RFC7807 problem
// responses for the admin API.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/rolegate/rolegate"
)

// Problem type tags, one per class in the error taxonomy. Clients can switch
// on these instead of parsing detail text.
const (
	TypeRoleNotFound       = "rolegate/role-not-found"
	TypePermissionNotFound = "rolegate/permission-not-found"
	TypeInvalidPermissions = "rolegate/invalid-permissions"
	TypeValidation         = "rolegate/validation-failed"
	TypeMalformedBody      = "rolegate/malformed-body"
	TypeInternal           = "about:blank"
)

// ProblemDetail is the RFC7807 body sent for every non-2xx admin response.
type ProblemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// JSON writes data with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Problem writes a typed RFC7807 response.
func Problem(w http.ResponseWriter, status int, typ, title, detail string) {
	JSON(w, status, ProblemDetail{Type: typ, Title: title, Status: status, Detail: detail})
}

// DecodeJSON decodes a request body into target. Unknown fields are rejected
// so that misspelled admin payload keys fail loudly instead of being
// silently dropped.
func DecodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}

// RespondError picks the problem type and status for a domain error.
func RespondError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, rolegate.ErrRoleNotFound):
		Problem(w, http.StatusNotFound, TypeRoleNotFound, "Not Found", err.Error())
	case errors.Is(err, rolegate.ErrPermissionNotFound):
		Problem(w, http.StatusNotFound, TypePermissionNotFound, "Not Found", err.Error())
	case errors.Is(err, rolegate.ErrInvalidPermissions):
		Problem(w, http.StatusBadRequest, TypeInvalidPermissions, "Invalid Argument", err.Error())
	case errors.As(err, &verrs):
		Problem(w, http.StatusBadRequest, TypeValidation, "Validation Failed", verrs.Error())
	default:
		Problem(w, http.StatusInternalServerError, TypeInternal, "Internal Error", "")
	}
}
