package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		locator string
		want    string
	}{
		{"no base", "", "videos/a.mp4", "videos/a.mp4"},
		{"absolute url", "ftp://media.example.edu/", "https://cdn.example.edu/a.mp4", "https://cdn.example.edu/a.mp4"},
		{"relative to ftp base", "ftp://media.example.edu/lectures", "math/ders 1.mp4", "ftp://media.example.edu/lectures/math/ders%201.mp4"},
		{"leading slash kept under base", "https://media.example.edu/root/", "/math/a.mp4", "https://media.example.edu/root/math/a.mp4"},
		{"local base dir", "/srv/media", "math/a.mp4", filepath.Join("/srv/media", "math/a.mp4")},
		{"absolute local path", "/srv/media", "/tmp/a.mp4", "/tmp/a.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.base, tt.locator)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Resolve("ftp://x", "  ")
	assert.Error(t, err)
}

func TestFetchHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lectures/ders%201.mp4" && r.URL.Path != "/lectures/ders 1.mp4" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("video-bytes"))
	}))
	defer server.Close()

	dir := t.TempDir()
	got, err := New().Fetch(context.Background(), server.URL+"/lectures/ders%201.mp4", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ders 1.mp4"), got)

	data, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, "video-bytes", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFetchHTTPStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	dir := t.TempDir()
	_, err := New().Fetch(context.Background(), server.URL+"/missing.mp4", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "410")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFetchLocal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lecture.mp4")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	got, err := New().Fetch(context.Background(), path, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, path, got)

	got, err = New().Fetch(context.Background(), "file://"+path, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, path, got)

	_, err = New().Fetch(context.Background(), filepath.Join(t.TempDir(), "absent.mp4"), t.TempDir())
	assert.Error(t, err)
}

func TestFetchUnsupportedScheme(t *testing.T) {
	_, err := New().Fetch(context.Background(), "s3://bucket/lecture.mp4", t.TempDir())
	assert.True(t, errors.Is(err, ErrUnsupportedScheme))
}
