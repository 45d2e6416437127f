// Package model defines database models
package model

import "time"

type User struct {
	ID           string `gorm:"primaryKey" json:"id"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Name         string `json:"name"`
	Admin        bool   `gorm:"default:false" json:"admin"`
	Verified     bool   `gorm:"default:false" json:"verified"`

	// Both tokens are single-use random strings. VerifyToken exists only
	// until the account is verified, ResetToken only while a reset window
	// is open. Clearing them is part of consuming them.
	VerifyToken    *string    `gorm:"uniqueIndex" json:"-"`
	ResetToken     *string    `gorm:"uniqueIndex" json:"-"`
	ResetExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`

	Files []File `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
}
