package helpers

import (
	"strings"
)

// SafeFilename keeps letters, digits, spaces and underscores and replaces
// spaces with underscores. Used for office workbook names.
func SafeFilename(name string, maxLen int) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		case r == '_' || r == '-':
			b.WriteRune(r)
		case r >= 0x0600 && r <= 0x06FF: // Arabic block
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		out = "unnamed"
	}
	if maxLen > 0 && len([]rune(out)) > maxLen {
		out = string([]rune(out)[:maxLen])
	}
	return out
}
