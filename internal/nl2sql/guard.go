package nl2sql

import (
	"strings"
	"unicode"
)

// IsReadOnly reports whether sql starts with a SELECT or WITH keyword. It is
// a prefix check only and does not parse the statement.
func IsReadOnly(sql string) bool {
	normalized := strings.ToLower(strings.TrimLeftFunc(sql, unicode.IsSpace))
	for _, keyword := range []string{"select", "with"} {
		if !strings.HasPrefix(normalized, keyword) {
			continue
		}
		rest := normalized[len(keyword):]
		if rest == "" {
			return true
		}
		next := rune(rest[0])
		if unicode.IsSpace(next) || next == '(' || next == '*' {
			return true
		}
	}
	return false
}
