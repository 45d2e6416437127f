package model

import "time"

type File struct {
	ID      string `gorm:"primaryKey" json:"id"`
	OwnerID string `gorm:"index;not null" json:"-"`

	// Objects are stored under a generated key so different users can
	// upload files with the same name
	StorageKey   string `gorm:"uniqueIndex;not null" json:"-"`
	OriginalName string `json:"name"`
	ContentType  string `json:"content_type"`
	Size         int64  `json:"size"`

	CreatedAt time.Time `json:"created_at"`
}
