package clickhouse

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExecutePostsSQLVerbatimWithAccessHeaders(t *testing.T) {
	const sql = "SELECT device_type, SUM(net_total_revenue) FROM cm.ad_click_et GROUP BY device_type"
	var gotMethod, gotBody, gotID, gotSecret, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotQuery = r.URL.RawQuery
		gotID = r.Header.Get(HeaderClientID)
		gotSecret = r.Header.Get(HeaderClientSecret)
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		_, _ = w.Write([]byte("device_type,total\nmobile,120.5"))
	}))
	defer srv.Close()

	executor := NewExecutor(Config{
		URL:          srv.URL + "/?default_format=CSVWithNames",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	})
	text, err := executor.Execute(context.Background(), sql)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if text != "device_type,total\nmobile,120.5" {
		t.Fatalf("text = %q", text)
	}
	if gotMethod != http.MethodPost {
		t.Fatalf("method = %s", gotMethod)
	}
	if gotBody != sql {
		t.Fatalf("body = %q", gotBody)
	}
	if gotID != "client-id" || gotSecret != "client-secret" {
		t.Fatalf("access headers = %q/%q", gotID, gotSecret)
	}
	if gotQuery != "default_format=CSVWithNames" {
		t.Fatalf("query string = %q", gotQuery)
	}
}

func TestExecuteReturnsBodyForErrorStatus(t *testing.T) {
	const dbError = "Code: 60. DB::Exception: Table cm.nope does not exist. (UNKNOWN_TABLE)"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(dbError))
	}))
	defer srv.Close()

	text, err := NewExecutor(Config{URL: srv.URL}).Execute(context.Background(), "SELECT * FROM cm.nope")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if text != dbError {
		t.Fatalf("text = %q", text)
	}
}

func TestExecuteReturnsEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	text, err := NewExecutor(Config{URL: srv.URL}).Execute(context.Background(), "SELECT 1")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if text != "" {
		t.Fatalf("text = %q, want empty", text)
	}
}

func TestExecuteRequiresEndpoint(t *testing.T) {
	executor := NewExecutor(Config{URL: "  "})
	if executor.Configured() {
		t.Fatal("Configured() = true for blank URL")
	}
	if _, err := executor.Execute(context.Background(), "SELECT 1"); !errors.Is(err, ErrMissingEndpoint) {
		t.Fatalf("error = %v, want ErrMissingEndpoint", err)
	}
}

func TestExecuteReturnsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	if _, err := NewExecutor(Config{URL: url}).Execute(context.Background(), "SELECT 1"); err == nil {
		t.Fatal("expected transport error")
	}
}

func TestExecuteHonoursCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("1"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewExecutor(Config{URL: srv.URL}).Execute(ctx, "SELECT 1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}
