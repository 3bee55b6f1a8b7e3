package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/schoolhealth/notification-sync/internal/core/domain"
)

// RBAC admits only the given roles. Other roles get domain.ErrForbidden,
// rendered by the API error handler.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[string(r)] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(KeyRole).(string)
			if _, ok := allowed[role]; !ok {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}

// StaffOnly admits administrators, managers and school nurses.
func StaffOnly() echo.MiddlewareFunc {
	return RBAC(domain.RoleAdmin, domain.RoleManager, domain.RoleSchoolNurse)
}
