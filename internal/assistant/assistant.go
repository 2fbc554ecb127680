// Package assistant answers one chat message: it builds the prompt, asks
// the completion model for SQL, runs the SQL and assembles the reply with
// its debug record.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/astrachat/astrachat/internal/history"
	"github.com/astrachat/astrachat/internal/nl2sql"
	"github.com/astrachat/astrachat/internal/observability"
	"github.com/astrachat/astrachat/internal/prompt"
	"github.com/astrachat/astrachat/internal/query"
)

const (
	ResultQueryFailed = "Query failed."
	ResultRejected    = "Only SELECT queries are allowed."
)

// ErrCompletionFailed wraps every error returned by the completion model.
// No answer is produced in that case.
var ErrCompletionFailed = errors.New("completion failed")

type Request struct {
	Message   string
	Principal string
}

// Debug mirrors what the chat page shows in its debug panel. Exactly one of
// ClickHouseResponse, Error and Rejection is set on a returned Answer.
type Debug struct {
	ReceivedMessage    string  `json:"receivedMessage"`
	Prompt             string  `json:"prompt"`
	SQL                string  `json:"sql"`
	ClickHouseResponse *string `json:"clickhouseResponse,omitempty"`
	Error              *string `json:"error,omitempty"`
	Rejection          *string `json:"rejection,omitempty"`
}

type Answer struct {
	Result  string
	Debug   Debug
	Outcome history.Status
	EntryID string
}

type Service struct {
	Completer nl2sql.Completer
	Executor  query.Executor
	// Recorder is optional. Recording failures are logged and never change
	// the answer.
	Recorder      history.Recorder
	Logger        *slog.Logger
	ReadOnlyGuard bool
	// Engine labels executor metrics.
	Engine string
	Now    func() time.Time
}

func (s *Service) Ask(ctx context.Context, req Request) (Answer, error) {
	logger := s.logger()
	traceID := observability.TraceIDFromContext(ctx)
	started := s.now()
	entry := history.NewEntry(req.Principal, req.Message, started)

	text := prompt.Build(req.Message)
	debug := Debug{ReceivedMessage: req.Message, Prompt: text}
	logger.DebugContext(ctx, "prompt built",
		slog.String("trace_id", traceID),
		slog.String("entry_id", entry.ID),
		slog.Int("prompt_bytes", len(text)),
	)

	completionStart := time.Now()
	raw, err := s.Completer.Complete(ctx, text)
	observability.ObserveCompletion(time.Since(completionStart), err)
	if err != nil {
		logger.WarnContext(ctx, "completion failed",
			slog.String("trace_id", traceID),
			slog.String("entry_id", entry.ID),
			slog.String("error", err.Error()),
		)
		entry.Status = history.StatusCompletionFailed
		entry.Error = err.Error()
		s.record(ctx, entry, started)
		return Answer{}, fmt.Errorf("%w: %w", ErrCompletionFailed, err)
	}

	sql := nl2sql.SanitizeSQL(raw)
	if sql == nl2sql.FallbackSQL {
		observability.IncrementFallbackSQL()
	}
	debug.SQL = sql
	entry.SQL = sql
	logger.DebugContext(ctx, "sql generated",
		slog.String("trace_id", traceID),
		slog.String("entry_id", entry.ID),
		slog.String("sql", sql),
	)

	if s.ReadOnlyGuard && !nl2sql.IsReadOnly(sql) {
		observability.IncrementRejectedSQL()
		logger.WarnContext(ctx, "generated sql rejected",
			slog.String("trace_id", traceID),
			slog.String("entry_id", entry.ID),
			slog.String("sql", sql),
		)
		rejection := ResultRejected
		debug.Rejection = &rejection
		entry.Status = history.StatusRejected
		s.record(ctx, entry, started)
		return Answer{Result: ResultRejected, Debug: debug, Outcome: history.StatusRejected, EntryID: entry.ID}, nil
	}

	queryStart := time.Now()
	body, err := s.Executor.Execute(ctx, sql)
	observability.ObserveQuery(s.Engine, time.Since(queryStart), len(body), err)
	if err != nil {
		logger.ErrorContext(ctx, "query failed",
			slog.String("trace_id", traceID),
			slog.String("entry_id", entry.ID),
			slog.String("error", err.Error()),
		)
		message := err.Error()
		debug.Error = &message
		entry.Status = history.StatusQueryFailed
		entry.Error = message
		s.record(ctx, entry, started)
		return Answer{Result: ResultQueryFailed, Debug: debug, Outcome: history.StatusQueryFailed, EntryID: entry.ID}, nil
	}

	debug.ClickHouseResponse = &body
	entry.Status = history.StatusSucceeded
	entry.ResponseBytes = len(body)
	s.record(ctx, entry, started)
	return Answer{
		Result:  "Query:\n" + sql + "\n\n" + body,
		Debug:   debug,
		Outcome: history.StatusSucceeded,
		EntryID: entry.ID,
	}, nil
}

// record counts the outcome and stores the entry. Storage runs detached from
// ctx so an entry survives the client going away.
func (s *Service) record(ctx context.Context, entry history.Entry, started time.Time) {
	observability.ObserveAnswer(string(entry.Status))
	if s.Recorder == nil {
		return
	}
	entry.DurationMs = s.now().Sub(started).Milliseconds()
	if err := s.Recorder.Record(context.WithoutCancel(ctx), entry); err != nil {
		observability.IncrementHistoryRecordFailure()
		s.logger().WarnContext(ctx, "history record failed",
			slog.String("trace_id", observability.TraceIDFromContext(ctx)),
			slog.String("entry_id", entry.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return observability.NopLogger()
	}
	return s.Logger
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
