package domain

import "strings"

// Caller is the identity yielded by the authorization check. It is a value
// object scoped to one request.
type Caller struct {
	UserID  string
	AdminID string
	Role    string
	Email   string
}

// IsZero reports whether no caller was resolved.
func (c Caller) IsZero() bool {
	return c.UserID == ""
}

// HasRole reports whether the caller's role is one of roles (case-insensitive).
func (c Caller) HasRole(roles []string) bool {
	role := strings.ToLower(strings.TrimSpace(c.Role))
	if role == "" {
		return false
	}
	for _, r := range roles {
		if strings.ToLower(r) == role {
			return true
		}
	}
	return false
}

// ActingAdmin returns the admin identity recorded on decisions, falling back
// to the user id when the token carries no separate admin record.
func (c Caller) ActingAdmin() string {
	if c.AdminID != "" {
		return c.AdminID
	}
	return c.UserID
}
