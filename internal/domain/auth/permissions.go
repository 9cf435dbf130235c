package auth

const (
	RoleAdmin      = "ADMIN"
	RoleSupervisor = "SUPERVISOR"
)

// KnownRole reports whether role is one of the roles the service accepts.
func KnownRole(role string) bool {
	switch role {
	case RoleAdmin, RoleSupervisor:
		return true
	}
	return false
}

type UserContext struct {
	UserID  string
	Role    string
	GroupID string
}
