package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

var ErrMissingCredential = errors.New("user requires a password or an external identity")

type User struct {
	ID                 uint64    `gorm:"primarykey" json:"id"`
	Username           string    `gorm:"type:varchar(100);not null" json:"username"`
	Email              string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash       *string   `gorm:"type:varchar(255)" json:"-"`
	ExternalIdentityID *string   `gorm:"type:varchar(255);uniqueIndex" json:"-"`
	Avatar             string    `gorm:"type:varchar(1024)" json:"avatar"`
	Role               Role      `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	// Relations
	CreatedTasks  []Task `gorm:"foreignKey:CreatedByID" json:"-"`
	AssignedTasks []Task `gorm:"foreignKey:AssignedToID" json:"-"`
}

// HasPassword reports whether the account can sign in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// Actor returns the authorization identity for u.
func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

// BeforeSave enforces the credential and role invariants on every write.
func (u *User) BeforeSave(tx *gorm.DB) error {
	if !u.HasPassword() && (u.ExternalIdentityID == nil || *u.ExternalIdentityID == "") {
		return ErrMissingCredential
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = RoleUser
	}
	if !u.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}
