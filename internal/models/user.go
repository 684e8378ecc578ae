// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account holder. Usernames are stored lower-cased.
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	FirstName      string    `gorm:"not null" json:"first_name"`
	LastName       string    `gorm:"not null" json:"last_name"`
	Username       string    `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash   string    `gorm:"column:password_hash;not null" json:"-"`
	EmailVerified  bool      `gorm:"not null;default:false" json:"email_verified"`
	AccountCreated time.Time `gorm:"column:account_created;autoCreateTime" json:"account_created"`
	AccountUpdated time.Time `gorm:"column:account_updated;autoUpdateTime" json:"account_updated"`
}

// OwnerID makes a user the owner of its own profile.
func (u *User) OwnerID() uuid.UUID {
	return u.ID
}
