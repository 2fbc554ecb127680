package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/astrachat/astrachat/internal/history"
)

const knownEntryID = "0b4f9d5e-6a57-4c55-9c1e-3f3f0d1a2b3c"

func TestListHistoryNotConfigured(t *testing.T) {
	cfg := loadTestConfig(t, map[string]string{})
	h := NewHandler(cfg, Dependencies{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d", rr.Code)
	}
	if body := decodeBody(t, rr); body["error_code"] != "HISTORY_NOT_CONFIGURED" {
		t.Fatalf("body = %v", body)
	}
}

func TestListHistoryAppliesLimit(t *testing.T) {
	cfg := loadTestConfig(t, map[string]string{})
	reader := newFakeHistory()
	h := NewHandler(cfg, Dependencies{History: reader})

	tests := []struct {
		query string
		want  int
	}{
		{query: "", want: history.DefaultListLimit},
		{query: "?limit=5", want: 5},
		{query: "?limit=9999", want: history.MaxListLimit},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/history"+tt.query, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", tt.query, rr.Code)
		}
		if reader.lastLimit != tt.want {
			t.Fatalf("%s: limit = %d, want %d", tt.query, reader.lastLimit, tt.want)
		}
		body := decodeBody(t, rr)
		entries, ok := body["entries"].([]any)
		if !ok || len(entries) != 1 {
			t.Fatalf("%s: entries = %#v", tt.query, body["entries"])
		}
	}
}

func TestListHistoryRejectsBadLimit(t *testing.T) {
	cfg := loadTestConfig(t, map[string]string{})
	h := NewHandler(cfg, Dependencies{History: newFakeHistory()})

	for _, raw := range []string{"abc", "0", "-3"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/history?limit="+raw, nil))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("limit=%s: status = %d", raw, rr.Code)
		}
	}
}

func TestListHistoryStoreError(t *testing.T) {
	cfg := loadTestConfig(t, map[string]string{})
	reader := newFakeHistory()
	reader.err = errors.New("db down")
	h := NewHandler(cfg, Dependencies{History: reader})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestGetHistoryEntry(t *testing.T) {
	cfg := loadTestConfig(t, map[string]string{})
	h := NewHandler(cfg, Dependencies{History: newFakeHistory()})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/history/"+knownEntryID, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body=%s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["id"] != knownEntryID || body["status"] != "succeeded" {
		t.Fatalf("body = %v", body)
	}
}

func TestGetHistoryEntryNotFound(t *testing.T) {
	cfg := loadTestConfig(t, map[string]string{})
	h := NewHandler(cfg, Dependencies{History: newFakeHistory()})

	for _, id := range []string{"5d3c1b7e-0000-4000-8000-000000000000", "not-a-uuid"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/history/"+id, nil))
		if rr.Code != http.StatusNotFound {
			t.Fatalf("%s: status = %d", id, rr.Code)
		}
		if body := decodeBody(t, rr); body["error_code"] != "ENTRY_NOT_FOUND" {
			t.Fatalf("%s: body = %v", id, body)
		}
	}
}

func TestGetHistoryEntryNormalisesID(t *testing.T) {
	cfg := loadTestConfig(t, map[string]string{})
	fake := newFakeHistory()
	h := NewHandler(cfg, Dependencies{History: fake})

	for _, id := range []string{
		"urn:uuid:" + knownEntryID,
		"%7B" + knownEntryID + "%7D",
		strings.ToUpper(knownEntryID),
	} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/history/"+id, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: status = %d, body=%s", id, rr.Code, rr.Body.String())
		}
		if fake.lastID != knownEntryID {
			t.Fatalf("%s: store got id %q, want %q", id, fake.lastID, knownEntryID)
		}
	}
}

type fakeHistory struct {
	entries   map[string]history.Entry
	lastLimit int
	lastID    string
	err       error
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{entries: map[string]history.Entry{
		knownEntryID: {
			ID:        knownEntryID,
			Message:   "show total revenue by device type",
			SQL:       revenueSQL,
			Status:    history.StatusSucceeded,
			CreatedAt: time.Date(2026, time.February, 19, 9, 30, 0, 0, time.UTC),
		},
	}}
}

func (f *fakeHistory) ListRecent(_ context.Context, limit int) ([]history.Entry, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	out := make([]history.Entry, 0, len(f.entries))
	for _, entry := range f.entries {
		out = append(out, entry)
	}
	return out, nil
}

func (f *fakeHistory) Get(_ context.Context, id string) (history.Entry, error) {
	f.lastID = id
	entry, ok := f.entries[id]
	if !ok {
		return history.Entry{}, history.ErrNotFound
	}
	return entry, nil
}
