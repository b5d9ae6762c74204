package models

import "fmt"

// Role selects what a user may do and which session channel carries their token.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Roles lists every known role in channel lookup order.
var Roles = []Role{RoleCustomer, RoleAdmin}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// ParseRole maps user input to a Role. An empty value yields the customer default.
func ParseRole(value string) (Role, error) {
	if value == "" {
		return RoleCustomer, nil
	}
	role := Role(value)
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", value)
	}
	return role, nil
}
