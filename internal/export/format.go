package export

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidFormat is returned for format input outside the supported set.
var ErrInvalidFormat = errors.New("invalid export format")

// Format is the serialization chosen for an export action.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
	// FormatTxt renders like FormatText but keeps the user's spelling
	// in messages.
	FormatTxt Format = "txt"
)

// ParseFormat validates user input.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "text":
		return FormatText, nil
	case "txt":
		return FormatTxt, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
}

// Label is the upper-case name used in user messages.
func (f Format) Label() string {
	return strings.ToUpper(string(f))
}

func (f Format) String() string {
	return string(f)
}
