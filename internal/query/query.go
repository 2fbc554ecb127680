// Package query defines the database side of a chat request: a generated
// statement goes in, the database's response body comes out as text.
package query

import "context"

// Executor runs one SQL statement and returns the raw response text.
//
// A non-nil error means no response was obtained at all. Database-level
// failures (syntax errors, unknown tables, non-2xx HTTP statuses) are part of
// the response text and are not reported as errors.
type Executor interface {
	Execute(ctx context.Context, sql string) (string, error)
}
