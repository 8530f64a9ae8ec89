package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// Local leaves audio on disk; recognizers read the file directly.
type Local struct{}

func (Local) Upload(_ context.Context, localPath, mimeType string) (*Object, error) {
	abs, err := filepath.Abs(localPath)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("stat audio: %w", err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return &Object{URI: u.String(), MIMEType: mimeType, Name: abs}, nil
}

func (Local) Delete(context.Context, *Object) error {
	return nil
}
