package entity

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleAdmin    UserRole = "admin"
)

// User is the account record maintained by the auth collaborator. Only the
// fields needed for identity and the booking customer snapshot are read.
type User struct {
	Base
	Username string   `db:"username"`
	Email    string   `db:"email"`
	Phone    *string  `db:"phone"`
	Role     UserRole `db:"role"`
	IsActive bool     `db:"is_active"`
}
