package app

import (
	"strings"

	"github.com/google/uuid"
)

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NormalizeID canonicalizes an externally supplied request id. Sheet cells
// get re-typed, truncated and padded by humans, so comparison always runs
// on the stripped uppercase alphanumeric form.
func NormalizeID(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NewRequestID mints an 8-character uppercase alphanumeric token. Already
// in normalized form, so formatting round-trips through the sheet cannot
// change its identity.
func NewRequestID() string {
	raw := uuid.New()
	b := make([]byte, 8)
	for i := range b {
		b[i] = idAlphabet[int(raw[i])%len(idAlphabet)]
	}
	return string(b)
}
