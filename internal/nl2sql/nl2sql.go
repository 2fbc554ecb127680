// Package nl2sql turns a prompt into SQL text: the completion client asks a
// chat model for a statement and SanitizeSQL strips the markdown around it.
package nl2sql

import (
	"context"
	"errors"
)

// FallbackSQL replaces an empty completion so execution always has a
// non-empty statement.
const FallbackSQL = "SELECT 1"

var ErrMissingAPIKey = errors.New("completion api key is not configured")

type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
