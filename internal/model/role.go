package model

import (
	"fmt"
	"slices"
	"strings"
)

// Role is the authorization level of an account
type Role string

const (
	RolePlayer Role = "PLAYER"
	RoleHelper Role = "HELPER"
	RoleMod    Role = "MOD"
	RoleDev    Role = "DEV"
	RoleAdmin  Role = "ADMIN"
	RoleOwner  Role = "OWNER"
)

// Roles returns every role, least privileged first
func Roles() []Role {
	return []Role{RolePlayer, RoleHelper, RoleMod, RoleDev, RoleAdmin, RoleOwner}
}

// RoleNames lists the roles for messages, e.g. "PLAYER, HELPER, ..."
func RoleNames() string {
	names := make([]string, 0, len(Roles()))
	for _, r := range Roles() {
		names = append(names, r.String())
	}
	return strings.Join(names, ", ")
}

// ParseRole converts a stored or user-supplied role name, ignoring case
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return slices.Contains(Roles(), r)
}

func (r Role) String() string {
	return string(r)
}
