package pipeline

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/mgpai22/lecsub/internal/subtitle"
)

// OutputPath builds <dir>/<safe name><suffix><ext>. The name is the
// idempotency key, so equal display names map to the same file.
func OutputPath(dir, name, suffix string, format subtitle.Format) string {
	return filepath.Join(dir, SafeName(name)+suffix+subtitle.GetExtensionForFormat(format))
}

// SafeName NFC-normalizes a display name, replaces whitespace with
// underscores and path separators with dashes.
func SafeName(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		return "untitled"
	}

	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range name {
		switch {
		case unicode.IsSpace(r):
			sb.WriteRune('_')
		case r == '/' || r == '\\' || r == 0:
			sb.WriteRune('-')
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
