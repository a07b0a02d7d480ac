package model

import (
	"strings"
	"unicode"
)

// NormalizeRegistration reduces a free-text vehicle registration to the key
// used for duplicate detection: uppercase ASCII letters and digits only.
// "AB12 CDE", "ab12-cde" and " ab12cde\t" all map to "AB12CDE".
func NormalizeRegistration(raw string) string {
	upper := strings.ToUpper(raw)
	var b strings.Builder
	b.Grow(len(upper))
	for _, r := range upper {
		if unicode.IsSpace(r) {
			continue
		}
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
