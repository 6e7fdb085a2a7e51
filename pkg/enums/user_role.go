package enums

// UserRole is the actor role carried in access tokens.
type UserRole string

const (
	UserRoleCustomer UserRole = "CUSTOMER"
	UserRoleSeller   UserRole = "SELLER"
	UserRoleAdmin    UserRole = "ADMIN"
)

var validUserRoles = []UserRole{
	UserRoleCustomer,
	UserRoleSeller,
	UserRoleAdmin,
}

func (u UserRole) String() string { return string(u) }

func (u UserRole) IsValid() bool { return known(validUserRoles, u) }

func ParseUserRole(value string) (UserRole, error) {
	return parse(validUserRoles, value, "user role")
}
