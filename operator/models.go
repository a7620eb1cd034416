package operator

import "time"

// Role is recorded on the operator and carried in its token. The HTTP
// layer does not check it: every authenticated operator can reach the
// same routes, whatever its role.
type Role string

const (
	RoleAdmin            Role = "admin"
	RoleDashboardViewer   Role = "dashboard_viewer"
)

func isValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleDashboardViewer:
		return true
	default:
		return false
	}
}

// Operator is a dashboard user who, once logged in, can manage callers,
// trigger manual reassigns and view the feed.
type Operator struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RegisterRequest is the payload for creating an operator account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
}

// LoginRequest is the payload for exchanging credentials for a token.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
