package model

import (
	"time"
)

// User is a credential record. Deletes are hard deletes so the username and
// email of a removed account become available again.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"column:username;size:80;uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"column:email;size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"column:password_hash;not null" json:"-"`
	IsAdmin      bool       `gorm:"column:is_admin;not null;index:idx_users_admin_active,priority:1" json:"is_admin"`
	IsActive     bool       `gorm:"column:is_active;not null;index:idx_users_admin_active,priority:2" json:"is_active"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	LastLogin    *time.Time `gorm:"column:last_login" json:"last_login"`
}

// IsActiveAdmin reports whether the user counts toward the active admin total.
func (u *User) IsActiveAdmin() bool {
	return u.IsAdmin && u.IsActive
}
