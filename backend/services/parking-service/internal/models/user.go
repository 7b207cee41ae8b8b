package models

import "time"

// Roles known to the service. Admins may manage sessions across users.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account that can register plates and query its own sessions.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// CanManageSessions reports whether the user holds the management permission.
func (u *User) CanManageSessions() bool {
	return u.Role == RoleAdmin
}
