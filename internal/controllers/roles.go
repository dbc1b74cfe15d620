package controllers

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

var allowedRoles = map[string]struct{}{
	RoleAdmin: {},
	RoleStaff: {},
}

func IsValidRole(role string) bool {
	_, ok := allowedRoles[role]
	return ok
}
