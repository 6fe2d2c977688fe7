package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxPresetNameLen = 100
	MaxModTitleLen   = 256
)

// NormalizePresetInput trims the name and de-duplicates mod ids.
// It returns a *ValidationError when the input cannot form a preset.
func NormalizePresetInput(name string, modIDs []string) (string, []string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(name) > MaxPresetNameLen {
		return "", nil, &ValidationError{Field: "name", Reason: fmt.Sprintf("too long (>%d)", MaxPresetNameLen)}
	}
	return name, UniqueIDs(modIDs), nil
}

// ValidateModTitle checks a title for a newly registered mod
func ValidateModTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(title) > MaxModTitleLen {
		return "", &ValidationError{Field: "title", Reason: fmt.Sprintf("too long (>%d)", MaxModTitleLen)}
	}
	return title, nil
}
