package restapi

import (
	"net/http"

	"github.com/schoolhealth/notification-sync/internal/core/domain"
)

// RoleRoute is where a role's notification endpoints live on the backend
// and how its mark-as-read call is issued.
type RoleRoute struct {
	BasePath       string
	MarkReadMethod string
}

// DefaultRoutes is the backend layout for the three notification roles.
// Roles without an entry use the parent route.
var DefaultRoutes = map[domain.Role]RoleRoute{
	domain.RoleParent:      {BasePath: "/parent/notifications", MarkReadMethod: http.MethodPut},
	domain.RoleSchoolNurse: {BasePath: "/nurse/notifications", MarkReadMethod: http.MethodPut},
	domain.RoleManager:     {BasePath: "/manager/notifications", MarkReadMethod: http.MethodPut},
}

func (r RoleRoute) markMethod() string {
	if r.MarkReadMethod == "" {
		return http.MethodPut
	}
	return r.MarkReadMethod
}
