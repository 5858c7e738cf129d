package enums

import (
	"fmt"
	"strings"
)

// MediaKind defines what an attached file represents for its item.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindModel MediaKind = "model"
)

var validMediaKinds = []MediaKind{
	MediaKindImage,
	MediaKindModel,
}

// String returns the literal string for the kind.
func (m MediaKind) String() string {
	return string(m)
}

// IsValid reports whether the kind is known.
func (m MediaKind) IsValid() bool {
	for _, candidate := range validMediaKinds {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMediaKind converts raw input into a MediaKind.
func ParseMediaKind(value string) (MediaKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validMediaKinds {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid media kind %q", value)
}
