package models

// Role is the account role.
type Role string

const (
	RoleAlumni  Role = "alumni"
	RoleFaculty Role = "faculty"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAlumni, RoleFaculty, RoleAdmin:
		return true
	}
	return false
}

// SignupAllowed reports whether r can be chosen at signup.
func (r Role) SignupAllowed() bool {
	return r == RoleAlumni || r == RoleFaculty
}
