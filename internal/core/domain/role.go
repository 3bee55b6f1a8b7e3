package domain

import "strings"

// Role identifies the kind of user logged into the application.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleManager     Role = "manager"
	RoleSchoolNurse Role = "nurse"
	RoleParent      Role = "parent"
)

// ParseRole normalises the role strings the backend emits ("ROLE_PARENT",
// "SchoolNurse", "school_nurse", ...). Unknown values yield "".
func ParseRole(s string) Role {
	r := strings.ToUpper(strings.TrimSpace(s))
	r = strings.TrimPrefix(r, "ROLE_")
	r = strings.NewReplacer("_", "", "-", "", " ", "").Replace(r)
	switch r {
	case "ADMIN":
		return RoleAdmin
	case "MANAGER":
		return RoleManager
	case "SCHOOLNURSE", "NURSE":
		return RoleSchoolNurse
	case "PARENT":
		return RoleParent
	default:
		return ""
	}
}

// IsStaff reports whether the role belongs to school staff.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleSchoolNurse
}

// RolePredicates is the set of role checks notification routing branches on.
type RolePredicates interface {
	IsParent() bool
	IsSchoolNurse() bool
	IsManager() bool
}

// NotificationRole picks the backend notification route for the given role
// checks. School nurse wins over manager, and anything else (admin, unknown)
// falls back to the parent route without error.
func NotificationRole(p RolePredicates) Role {
	switch {
	case p.IsSchoolNurse():
		return RoleSchoolNurse
	case p.IsManager():
		return RoleManager
	default:
		return RoleParent
	}
}
