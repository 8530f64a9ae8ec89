// Package fetch downloads lecture media to the local work directory.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrUnsupportedScheme is returned for locators that are neither local paths
// nor http(s)/ftp URLs.
var ErrUnsupportedScheme = errors.New("unsupported locator scheme")

// Fetcher copies the media named by a locator into dir and returns the local
// path. Local files are returned as-is without copying.
type Fetcher struct {
	HTTP *HTTPSource
	FTP  *FTPSource
}

func New() *Fetcher {
	return &Fetcher{HTTP: NewHTTPSource(nil), FTP: &FTPSource{}}
}

// Resolve joins a relative locator onto base. Absolute URLs and local paths
// are returned unchanged.
func Resolve(base, locator string) (string, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return "", errors.New("empty locator")
	}
	if base == "" || IsRemote(locator) || filepath.IsAbs(locator) {
		return locator, nil
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if baseURL.Scheme == "" {
		return filepath.Join(base, locator), nil
	}
	ref, err := url.Parse(strings.TrimLeft(locator, "/"))
	if err != nil {
		return "", fmt.Errorf("parse locator: %w", err)
	}
	if !strings.HasSuffix(baseURL.Path, "/") {
		baseURL.Path += "/"
	}
	return baseURL.ResolveReference(ref).String(), nil
}

func (f *Fetcher) Fetch(ctx context.Context, locator, dir string) (string, error) {
	u, err := url.Parse(locator)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// plain path, including windows drive letters
		return localFile(locator)
	}

	switch u.Scheme {
	case "file":
		return localFile(u.Path)
	case "http", "https":
		return f.HTTP.Fetch(ctx, u, dir)
	case "ftp":
		return f.FTP.Fetch(ctx, u, dir)
	default:
		return "", fmt.Errorf("%s: %w", u.Scheme, ErrUnsupportedScheme)
	}
}

// IsRemote reports whether locator is a URL rather than a local path.
func IsRemote(locator string) bool {
	u, err := url.Parse(locator)
	return err == nil && len(u.Scheme) > 1
}

func localFile(p string) (string, error) {
	info, err := os.Stat(p)
	if err != nil {
		return "", fmt.Errorf("media not found: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("media path %s is a directory", p)
	}
	return p, nil
}

// destination picks a file name under dir from the last URL path element.
func destination(u *url.URL, dir string) string {
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		name = "media"
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return filepath.Join(dir, filepath.Base(name))
}

// writeAtomic streams r into dest through a temp file in the same directory.
func writeAtomic(dest string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".fetch-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", dest, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", dest, err)
	}
	return nil
}
