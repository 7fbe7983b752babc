package enums

import "fmt"

// PrincipalRole is the platform-wide role stored on a principal.
type PrincipalRole string

const (
	PrincipalRoleStudent   PrincipalRole = "student"
	PrincipalRoleProfessor PrincipalRole = "professor"
	PrincipalRoleAdmin     PrincipalRole = "admin"
)

var validPrincipalRoles = []PrincipalRole{
	PrincipalRoleStudent,
	PrincipalRoleProfessor,
	PrincipalRoleAdmin,
}

// String implements fmt.Stringer.
func (r PrincipalRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known PrincipalRole.
func (r PrincipalRole) IsValid() bool {
	for _, candidate := range validPrincipalRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParsePrincipalRole converts raw input into a PrincipalRole.
func ParsePrincipalRole(value string) (PrincipalRole, error) {
	for _, candidate := range validPrincipalRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid principal role %q", value)
}
