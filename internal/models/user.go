package models

import "strings"

type User struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	RoleID         string `json:"role_id"`
	IsActive       bool   `json:"is_active"`
	OrganizationID string `json:"organization_id"`
	IsRegulator    bool   `json:"is_regulator"`
	OrgLegalName   string `json:"org_legal_name"`
}

// FirstName returns the leading word of the user's full name
func (u *User) FirstName() string {
	name := strings.TrimSpace(u.Name)
	if name == "" {
		return ""
	}
	return strings.Fields(name)[0]
}
