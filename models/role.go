package models

// Role is the account type assigned at registration. It never changes afterwards.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleWorker   Role = "worker"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleWorker, RoleAdmin:
		return true
	}
	return false
}
