package enums

// RoleType defines the role carried in an access token
type RoleType string

const (
	RoleStudent    RoleType = "STUDENT"
	RoleInstructor RoleType = "INSTRUCTOR"
)

// IsValid reports whether r is a known role
func (r RoleType) IsValid() bool {
	return r == RoleStudent || r == RoleInstructor
}
