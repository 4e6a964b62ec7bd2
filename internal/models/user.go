package models

import "time"

// Well-known role keys. Roles are data, not an enum: these are the keys the
// system itself depends on (bootstrap, authorization bypass and the
// teacher/student links on courses and enrollments).
const (
	RoleKeySuperAdmin = "super_admin"
	RoleKeyTeacher    = "teacher"
	RoleKeyStudent    = "student"
)

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	FirstName    string     `db:"first_name" json:"first_name"`
	LastName     string     `db:"last_name" json:"last_name"`
	PasswordHash string     `db:"password_hash" json:"-"`
	RoleKey      string     `db:"role_key" json:"role_key"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserRef is the embedded shape other resources expose for a linked user.
type UserRef struct {
	ID        string `db:"id" json:"id"`
	Username  string `db:"username" json:"username"`
	Email     string `db:"email" json:"email"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
}
