package requestid

import (
	"strings"

	"github.com/google/uuid"
)

// Header carries the request ID in both directions
const Header = "X-Request-ID"

// MaxLength caps client supplied IDs
const MaxLength = 64

// Resolve returns the request ID to use for a request.
// A client supplied ID is echoed after dropping characters outside
// [a-zA-Z0-9._-] and truncating to MaxLength. Empty input, or input
// that sanitizes to nothing, yields a fresh UUID.
func Resolve(incoming string) string {
	if incoming == "" {
		return uuid.NewString()
	}
	if id, err := uuid.Parse(incoming); err == nil {
		return id.String()
	}

	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_', r == '.':
			return r
		}
		return -1
	}, incoming)

	if len(sanitized) > MaxLength {
		sanitized = sanitized[:MaxLength]
	}
	if sanitized == "" {
		return uuid.NewString()
	}
	return sanitized
}
