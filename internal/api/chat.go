package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/astrachat/astrachat/internal/assistant"
	"github.com/astrachat/astrachat/internal/auth"
	"github.com/astrachat/astrachat/internal/history"
)

const maxChatRequestBytes = 1 << 20

// EntryIDHeader names the history entry recorded for a chat answer. It is
// only sent when history can be read back through /api/history/{id}.
const EntryIDHeader = "X-Astrachat-Entry-Id"

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Result string          `json:"result"`
	Debug  assistant.Debug `json:"debug"`
}

func handleChatQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Assistant == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ASSISTANT_NOT_CONFIGURED", "chat assistant is not configured", false, nil)
		return
	}

	var request chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatRequestBytes)).Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid chat request body", false, map[string]any{"details": err.Error()})
		return
	}

	answer, err := deps.Assistant.Ask(r.Context(), assistant.Request{
		Message:   request.Message,
		Principal: auth.PrincipalFromContext(r.Context()),
	})
	if err != nil {
		if errors.Is(err, assistant.ErrCompletionFailed) {
			writeError(r.Context(), w, http.StatusBadGateway, "COMPLETION_FAILED", "failed to generate sql", true, map[string]any{"details": err.Error()})
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "INTERNAL", "chat request failed", false, map[string]any{"details": err.Error()})
		return
	}

	if deps.History != nil && answer.EntryID != "" {
		w.Header().Set(EntryIDHeader, answer.EntryID)
	}
	writeJSON(w, answerStatus(answer.Outcome), chatResponse{Result: answer.Result, Debug: answer.Debug})
}

func answerStatus(outcome history.Status) int {
	switch outcome {
	case history.StatusQueryFailed:
		return http.StatusInternalServerError
	case history.StatusRejected:
		return http.StatusBadRequest
	default:
		return http.StatusOK
	}
}
