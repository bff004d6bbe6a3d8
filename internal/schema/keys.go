package schema

import "strings"

// NormalizeCode canonicalizes an airport or tail code join key: trim
// whitespace, upper-case. Applied uniformly before any join.
func NormalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// hexDigits reports membership in the hexadecimal alphabet.
func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// NormalizeHex canonicalizes a 24-bit transponder code: strip any 0x prefix,
// retain only hexadecimal characters, lower-case, and zero-left-pad to six
// characters. An input with no hex characters at all normalizes to "".
func NormalizeHex(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	s = strings.TrimPrefix(s, "0x")

	var b strings.Builder
	for _, r := range s {
		if isHexDigit(r) {
			b.WriteRune(r)
		}
	}
	hex := b.String()
	if hex == "" {
		return ""
	}
	if len(hex) < 6 {
		hex = strings.Repeat("0", 6-len(hex)) + hex
	}
	return hex
}
