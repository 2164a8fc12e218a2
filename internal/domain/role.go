package domain

// Role constants define the allowed user roles.
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// ValidRoles returns the set of valid user roles.
func ValidRoles() []string {
	return []string{RoleBuyer, RoleSeller, RoleAdmin}
}

// IsValidRole checks whether the given role string is a valid user role.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles() {
		if r == role {
			return true
		}
	}
	return false
}

// RegistrableRoles returns the roles a user may self-assign at registration.
// Admin accounts are provisioned out of band.
func RegistrableRoles() []string {
	return []string{RoleBuyer, RoleSeller}
}

// IsRegistrableRole checks whether the role may be chosen at registration.
func IsRegistrableRole(role string) bool {
	for _, r := range RegistrableRoles() {
		if r == role {
			return true
		}
	}
	return false
}
