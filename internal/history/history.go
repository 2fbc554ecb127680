// Package history records one entry per chat request: the question, the
// generated SQL and how the request ended.
package history

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusSucceeded        Status = "succeeded"
	StatusQueryFailed      Status = "query_failed"
	StatusCompletionFailed Status = "completion_failed"
	StatusRejected         Status = "rejected"
)

var ErrNotFound = errors.New("history entry not found")

const (
	DefaultListLimit = 20
	MaxListLimit     = 200
)

type Entry struct {
	ID            string    `json:"id"`
	Principal     string    `json:"principal,omitempty"`
	Message       string    `json:"message"`
	SQL           string    `json:"sql,omitempty"`
	Status        Status    `json:"status"`
	Error         string    `json:"error,omitempty"`
	ResponseBytes int       `json:"response_bytes"`
	DurationMs    int64     `json:"duration_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewEntry starts an entry for message with a fresh ID.
func NewEntry(principal, message string, now time.Time) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Principal: principal,
		Message:   message,
		CreatedAt: now.UTC(),
	}
}

type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

type Reader interface {
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
	Get(ctx context.Context, id string) (Entry, error)
}

// Multi records to every recorder and joins their errors.
type Multi []Recorder

func (m Multi) Record(ctx context.Context, entry Entry) error {
	var errs []error
	for _, recorder := range m {
		if recorder == nil {
			continue
		}
		if err := recorder.Record(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ClampLimit applies DefaultListLimit and MaxListLimit.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// CanonicalID parses id in any form uuid.Parse accepts (hyphenated, braced,
// urn:uuid:, surrounding spaces) and returns its lowercase hyphenated form.
func CanonicalID(id string) (string, bool) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}
