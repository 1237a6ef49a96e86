package models

import "time"

// Role names known to the authorization layer. Membership is flat and
// explicit: holding ROLE_ADMIN does not imply ROLE_EDITOR.
const (
	RoleAdmin  = "ROLE_ADMIN"
	RoleEditor = "ROLE_EDITOR"
	RoleAuthor = "ROLE_AUTHOR"
	RoleUser   = "ROLE_USER"
)

// AllRoles is the bootstrap set granted to the very first registered user.
var AllRoles = []string{RoleAdmin, RoleEditor, RoleAuthor, RoleUser}

// User represents a registered account stored in the users table. Role
// names are loaded through the user_roles join table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Description  string    `db:"description" json:"description"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Active       bool      `db:"active" json:"active"`
	ProfileImage string    `db:"profile_image" json:"profile_image"`
	Roles        []string  `db:"-" json:"roles"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// HasRole reports flat membership of the given role name.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
