package nl2sql

import (
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("(?i)```sql|```")

// SanitizeSQL removes every code-fence marker, with or without the sql tag,
// and trims the result. It does not look at the statement itself.
func SanitizeSQL(raw string) string {
	sql := strings.TrimSpace(fencePattern.ReplaceAllString(raw, ""))
	if sql == "" {
		return FallbackSQL
	}
	return sql
}
