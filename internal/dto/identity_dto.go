package dto

// Principal describes the authenticated identity extracted from the auth token.
type Principal struct {
	ID       string `json:"id" validate:"required,max=64"`
	Email    string `json:"email" validate:"omitempty,email"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
}

// Role values produced by identity resolution.
const (
	RoleTeacher    = "teacher"
	RoleStudent    = "student"
	RoleUnresolved = "unresolved"
)

// RoleResolution is the outcome of resolving a principal to a role record.
type RoleResolution struct {
	Role        string `json:"role"`
	Provisioned bool   `json:"provisioned"`
}

// IsTeacher reports whether the resolution landed on the teacher role.
func (r RoleResolution) IsTeacher() bool {
	return r.Role == RoleTeacher
}
