// Package storage abstracts where uploaded file contents physically
// live. Local disk and S3 compatible buckets are supported.
package storage

import (
	"errors"
	"io"

	"github.com/spf13/viper"
)

// Storage holds uploaded file contents under opaque keys. Metadata
// lives in the database, implementations only move bytes.
type Storage interface {
	Save(key string, r io.Reader, size int64, contentType string) error
	Open(key string) (io.ReadCloser, error)
	Delete(key string) error
}

// New builds the backend selected by storage.type.
func New() (Storage, error) {
	switch viper.GetString("storage.type") {
	case "s3":
		return NewS3()
	case "local":
		return NewLocal(viper.GetString("storage.local.path"))
	default:
		return nil, errors.New("invalid storage type provided")
	}
}
