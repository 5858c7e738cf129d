// Package storage defines the file-store contract used by the media registry
// and the key layout shared by every backend.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// ErrNotExist is returned by Delete when the stored object is already gone.
var ErrNotExist = errors.New("storage: object does not exist")

// ErrInvalidPath is returned when a stored path escapes the store root.
var ErrInvalidPath = errors.New("storage: invalid path")

// Writer persists uploaded bytes and removes them again.
type Writer interface {
	Write(ctx context.Context, r io.Reader, suggestedName string) (string, error)
	Delete(ctx context.Context, storedPath string) error
}

// Object describes one stored file as seen by a listing.
type Object struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Lister enumerates stored files; the reconciler uses it to find orphans.
type Lister interface {
	List(ctx context.Context) ([]Object, error)
}

// Store is the full backend surface.
type Store interface {
	Writer
	Lister
}

// BuildKey returns a collision-free object key for suggestedName.
func BuildKey(prefix, suggestedName string) string {
	id := uuid.New()
	clean := SanitizeFileName(suggestedName)
	if clean == "" {
		clean = id.String()
	}
	key := fmt.Sprintf("%s/%s", id.String(), clean)
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}

// SanitizeFileName strips directory components, control characters and
// whitespace from a client supplied file name.
func SanitizeFileName(name string) string {
	if name == "" {
		return ""
	}
	clean := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if clean == "" || clean == "." || clean == "/" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}

// CleanKey validates a stored path before it is handed to a backend.
func CleanKey(storedPath string) (string, error) {
	trimmed := strings.TrimSpace(storedPath)
	if trimmed == "" {
		return "", ErrInvalidPath
	}
	cleaned := path.Clean("/" + strings.ReplaceAll(trimmed, "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." || strings.HasPrefix(cleaned, "..") {
		return "", ErrInvalidPath
	}
	if cleaned != strings.TrimPrefix(strings.ReplaceAll(trimmed, "\\", "/"), "/") {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}
