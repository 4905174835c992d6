package kernel

import "slices"

// Role is the coarse permission level of a user.
type Role string

const (
	RoleMaster      Role = "MASTER"
	RoleRecruiter   Role = "RECRUITER"
	RoleHRAssistant Role = "HR_ASSISTANT"
)

func (r Role) Valid() bool {
	switch r {
	case RoleMaster, RoleRecruiter, RoleHRAssistant:
		return true
	}
	return false
}

func (r Role) IsMaster() bool { return r == RoleMaster }

// Viewer is the identity every visibility check is evaluated against.
type Viewer struct {
	ID   UserID `json:"id"`
	Role Role   `json:"role"`
}

// AuthContext is the authenticated identity attached to a request
type AuthContext struct {
	UserID UserID   `json:"user_id"`
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	Role   Role     `json:"role"`
	Scopes []string `json:"scopes"`
}

func (a *AuthContext) IsValid() bool {
	return !a.UserID.IsEmpty() && a.Role.Valid()
}

func (a *AuthContext) Viewer() Viewer {
	return Viewer{ID: a.UserID, Role: a.Role}
}

// HasScope supports exact matches, "*" and "prefix:*" wildcards.
func (a *AuthContext) HasScope(scope string) bool {
	for _, s := range a.Scopes {
		if s == scope || s == "*" {
			return true
		}
		if len(s) > 2 && s[len(s)-2:] == ":*" {
			prefix := s[:len(s)-2]
			if len(scope) > len(prefix) && scope[:len(prefix)] == prefix && scope[len(prefix)] == ':' {
				return true
			}
		}
	}
	return false
}

func (a *AuthContext) HasAnyScope(scopes ...string) bool {
	return slices.ContainsFunc(scopes, a.HasScope)
}

func (a *AuthContext) HasAllScopes(scopes ...string) bool {
	for _, scope := range scopes {
		if !a.HasScope(scope) {
			return false
		}
	}
	return true
}
