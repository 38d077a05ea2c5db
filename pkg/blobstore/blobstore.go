// Package blobstore stores uploaded media and hands back public URLs.
package blobstore

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("blob not found")

// File is an upload in flight.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Reader      io.Reader
}

// Object identifies a stored blob.
type Object struct {
	URL      string
	PublicID string
}

// Store is a blob store. Implementations must be safe for concurrent use.
type Store interface {
	Upload(ctx context.Context, f File) (*Object, error)
	Delete(ctx context.Context, publicID string) error
}

// objectKey derives a collision-free key that keeps the original extension.
func objectKey(name string) string {
	ext := strings.ToLower(path.Ext(name))
	return uuid.NewString() + ext
}
