package storage

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// HistoryRoot is the top-level key segment for archived history entries.
const HistoryRoot = "history"

const maxKeyComponentBytes = 128

// BuildHistoryEntryPath returns history/YYYY/MM/DD/<id>.json, dated in UTC.
func BuildHistoryEntryPath(entryID string, createdAt time.Time) (string, error) {
	if !isKeyComponent(entryID) {
		return "", fmt.Errorf("invalid entry id: %q", entryID)
	}
	return path.Join(HistoryRoot, createdAt.UTC().Format("2006/01/02"), entryID+".json"), nil
}

// isKeyComponent accepts a single key segment that starts with an
// alphanumeric and otherwise holds only alphanumerics, '.', '_' and '-'.
func isKeyComponent(value string) bool {
	if value == "" || len(value) > maxKeyComponentBytes {
		return false
	}
	for i, r := range value {
		alnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if i == 0 && !alnum {
			return false
		}
		if !alnum && !strings.ContainsRune("._-", r) {
			return false
		}
	}
	return true
}
