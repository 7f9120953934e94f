package sales

import "strings"

// FormatName shortens a full name to its first and last tokens.
func FormatName(full string) string {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return parts[0] + " " + parts[len(parts)-1]
	}
}
