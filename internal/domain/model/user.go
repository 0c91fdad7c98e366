package model

import (
	"time"
)

const (
	RoleUser      = "user"
	RolePublisher = "publisher"
	RoleAdmin     = "admin"
)

type User struct {
	ID                  string     `db:"id" json:"id"`
	Name                string     `db:"name" json:"name"`
	Email               string     `db:"email" json:"email"`
	Role                string     `db:"role" json:"role"`
	HashedPassword      string     `db:"password_hash" json:"-"` // Not exposed
	ResetPasswordToken  *string    `db:"reset_password_token" json:"-"`
	ResetPasswordExpire *time.Time `db:"reset_password_expire" json:"-"`
	CreatedAt           time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updatedAt"`
}

// IsAdmin reports whether u bypasses ownership checks.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// CanModify reports whether u may mutate a record created by ownerID.
func (u *User) CanModify(ownerID string) bool {
	return u != nil && (u.ID == ownerID || u.IsAdmin())
}
