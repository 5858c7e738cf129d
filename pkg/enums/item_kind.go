package enums

import (
	"fmt"
	"strings"
)

// ItemKind classifies a catalog node.
type ItemKind string

const (
	ItemKindAssembly ItemKind = "Assembly"
	ItemKindPart     ItemKind = "Part"
	ItemKindStandard ItemKind = "Standard"
)

var validItemKinds = []ItemKind{
	ItemKindAssembly,
	ItemKindPart,
	ItemKindStandard,
}

// String returns the literal string for the kind.
func (k ItemKind) String() string {
	return string(k)
}

// IsValid reports whether the kind is known.
func (k ItemKind) IsValid() bool {
	for _, candidate := range validItemKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseItemKind converts raw input into an ItemKind, ignoring case.
func ParseItemKind(value string) (ItemKind, error) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range validItemKinds {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item kind %q", value)
}
