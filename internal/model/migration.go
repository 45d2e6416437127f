package model

import "time"

// Migration records a schema migration that has already been applied.
type Migration struct {
	Version   int       `gorm:"primaryKey"`
	Name      string    `gorm:"uniqueIndex;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}
