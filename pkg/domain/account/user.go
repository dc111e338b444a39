// Package account defines the users known to the token-issuing layer.
package account

import "errors"

// Roles understood by the HTTP layer.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	// ErrUserNotFound indicates no user with the given username exists.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken indicates a registration with an existing username.
	ErrUsernameTaken = errors.New("username already registered")
	// ErrAdminProtected indicates an attempt to delete an admin user.
	ErrAdminProtected = errors.New("cannot delete admin user")
	// ErrAdminRegistration indicates a self-registration as admin after an
	// admin account already exists.
	ErrAdminRegistration = errors.New("admin accounts cannot be registered once an admin exists")
	// ErrInvalidCredentials indicates an unknown user or a password mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidAccount indicates a registration with missing or bad fields.
	ErrInvalidAccount = errors.New("invalid account")
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// User is a stored account. Password holds a bcrypt hash.
type User struct {
	ID        int    `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Password  string `json:"password,omitempty"`
	Role      string `json:"role"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Principal is the authenticated identity passed to the core services.
type Principal struct {
	Username  string `json:"username"`
	Role      string `json:"role"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Actor returns the name recorded in the audit trail.
func (p Principal) Actor() string {
	if p.Username == "" {
		return "anonymous"
	}
	return p.Username
}
