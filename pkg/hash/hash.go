package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ShortLen is the prefix length used for log correlation ids.
const ShortLen = 12

// SHA256Hex returns the hex-encoded SHA256 hash of the input string.
func SHA256Hex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// Prefix returns the first prefixLen characters of SHA256(input).
func Prefix(input string, prefixLen int) string {
	full := SHA256Hex(input)
	if prefixLen > len(full) {
		return full
	}
	return full[:prefixLen]
}

// ForLog produces a short, irreversible hash of a value (client IPs) so logs
// can correlate requests without storing the raw value.
func ForLog(value string) string {
	return Prefix(value, ShortLen)
}

// Fingerprint identifies an ordered candidate list. Two runs over the same
// candidates in the same order share a fingerprint.
func Fingerprint(items []string) string {
	return Prefix(strings.Join(items, "\n"), ShortLen)
}
