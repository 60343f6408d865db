package entity

// UserRole is the wire-level role code of an actor.
type UserRole int

const (
	RoleCustomer   UserRole = 0
	RoleStaff      UserRole = 1
	RoleAdmin      UserRole = 2
	RoleSuperAdmin UserRole = 3
)

func (r UserRole) Valid() bool {
	return r >= RoleCustomer && r <= RoleSuperAdmin
}

func (r UserRole) String() string {
	switch r {
	case RoleCustomer:
		return "customer"
	case RoleStaff:
		return "staff"
	case RoleAdmin:
		return "admin"
	case RoleSuperAdmin:
		return "super_admin"
	}
	return "unknown"
}

// IsStaff reports whether the role works a branch queue.
func (r UserRole) IsStaff() bool {
	return r == RoleStaff || r == RoleAdmin || r == RoleSuperAdmin
}

type User struct {
	Base
	Name       string      `db:"name"`
	Role       UserRole    `db:"role"`
	Branch     *Branch     `db:"branch"`
	Restaurant *Restaurant `db:"restaurant"`
}

// Actor is the identity a request is evaluated against.
type Actor struct {
	ID         string
	Role       UserRole
	Branch     *Branch
	Restaurant *Restaurant
}

// ActorFromUser projects a directory entry onto an actor.
func ActorFromUser(u *User) Actor {
	return Actor{
		ID:         u.ID,
		Role:       u.Role,
		Branch:     u.Branch,
		Restaurant: u.Restaurant,
	}
}
