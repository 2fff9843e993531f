package storage

import (
	"os"

	"github.com/google/uuid"
)

// EnsureDir ensures a directory exists with default permissions.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// NewID returns a new random record identifier.
func NewID() string {
	return uuid.NewString()
}
