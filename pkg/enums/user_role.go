package enums

// UserRole names a row in the roles table.
type UserRole string

const (
	UserRoleAdmin    UserRole = "admin"
	UserRoleCustomer UserRole = "customer"
)

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}
