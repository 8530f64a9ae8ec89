// Package storage makes extracted audio reachable by a recognition service.
package storage

import (
	"context"
	"path"
	"path/filepath"
	"strings"
)

// Object is an uploaded audio file as seen by the recognizer.
type Object struct {
	URI      string
	MIMEType string
	// Name is the backend-specific handle used for deletion.
	Name string
}

// Uploader stores a local file and returns a URI the recognizer can read.
type Uploader interface {
	Upload(ctx context.Context, localPath, mimeType string) (*Object, error)
	Delete(ctx context.Context, obj *Object) error
}

func objectName(prefix, localPath string) string {
	base := filepath.Base(localPath)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return base
	}
	return path.Join(prefix, base)
}
