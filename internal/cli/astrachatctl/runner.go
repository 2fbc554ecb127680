package astrachatctl

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// entryIDHeader carries the history entry id of an answered chat request.
const entryIDHeader = "X-Astrachat-Entry-Id"

type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
}

func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("astrachatctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	baseURL := fs.String("base-url", firstNonEmpty(defaults.BaseURL, "http://localhost:8080"), "astrachat API base URL")
	apiKey := fs.String("api-key", defaults.APIKey, "API key for authenticated requests")
	timeout := fs.Duration("timeout", durationOr(defaults.Timeout, 60*time.Second), "HTTP timeout (e.g. 60s)")
	showDebug := fs.Bool("debug", false, "print the debug record after an ask result")
	limit := fs.Int("limit", 0, "number of history entries to list (server default when 0)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		writeUsage(stderr)
		return 2
	}

	client := defaults.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: *timeout}
	}
	base := strings.TrimRight(*baseURL, "/")

	command := strings.TrimSpace(fs.Arg(0))
	switch command {
	case "ask":
		question := strings.TrimSpace(strings.Join(fs.Args()[1:], " "))
		if question == "" {
			_, _ = fmt.Fprintln(stderr, "ask requires a question")
			return 2
		}
		return runAsk(ctx, client, base+"/api/query", *apiKey, question, *showDebug, stdout, stderr)
	case "history":
		path := "/api/history"
		switch {
		case fs.NArg() > 2:
			_, _ = fmt.Fprintln(stderr, "history takes at most one entry id")
			return 2
		case fs.NArg() == 2:
			path += "/" + url.PathEscape(fs.Arg(1))
		case *limit > 0:
			path += "?limit=" + strconv.Itoa(*limit)
		}
		return runGet(ctx, client, base+path, *apiKey, stdout, stderr)
	case "health":
		return runGet(ctx, client, base+"/api/health", *apiKey, stdout, stderr)
	case "ready":
		return runGet(ctx, client, base+"/api/ready", *apiKey, stdout, stderr)
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		writeUsage(stderr)
		return 2
	}
}

type askResponse struct {
	Result  *string         `json:"result"`
	Debug   json.RawMessage `json:"debug"`
	Message string          `json:"message"`
}

func runAsk(ctx context.Context, client *http.Client, endpoint, apiKey, question string, showDebug bool, stdout, stderr io.Writer) int {
	payload, err := json.Marshal(map[string]string{"message": question})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "encode request: %v\n", err)
		return 1
	}
	resp, err := doRequest(ctx, client, http.MethodPost, endpoint, apiKey, payload)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "request failed: %v\n", err)
		return 1
	}
	code, responseBody := resp.code, resp.body

	var parsed askResponse
	if err := json.Unmarshal(responseBody, &parsed); err != nil || parsed.Result == nil {
		_, _ = fmt.Fprintf(stderr, "http %d: %s\n", code, strings.TrimSpace(string(responseBody)))
		return 1
	}

	_, _ = fmt.Fprintln(stdout, *parsed.Result)
	if showDebug && len(parsed.Debug) > 0 {
		if pretty, ok := prettyJSON(parsed.Debug); ok {
			_, _ = fmt.Fprintln(stdout, "")
			_, _ = fmt.Fprintln(stdout, pretty)
		}
		if id := resp.header.Get(entryIDHeader); id != "" {
			_, _ = fmt.Fprintf(stdout, "\nhistory entry: %s\n", id)
		}
	}
	if code >= 400 {
		_, _ = fmt.Fprintf(stderr, "http %d\n", code)
		return 1
	}
	return 0
}

func runGet(ctx context.Context, client *http.Client, endpoint, apiKey string, stdout, stderr io.Writer) int {
	resp, err := doRequest(ctx, client, http.MethodGet, endpoint, apiKey, nil)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "request failed: %v\n", err)
		return 1
	}
	code, responseBody := resp.code, resp.body

	if code >= 400 {
		_, _ = fmt.Fprintf(stderr, "http %d: %s\n", code, strings.TrimSpace(string(responseBody)))
		return 1
	}

	if pretty, ok := prettyJSON(responseBody); ok {
		_, _ = fmt.Fprintln(stdout, pretty)
		return 0
	}
	if len(responseBody) > 0 {
		_, _ = fmt.Fprintln(stdout, string(responseBody))
	}
	return 0
}

type response struct {
	code   int
	header http.Header
	body   []byte
}

func doRequest(ctx context.Context, client *http.Client, method, endpoint, apiKey string, body []byte) (response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return response{}, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(apiKey) != "" {
		req.Header.Set("X-API-Key", strings.TrimSpace(apiKey))
	}

	resp, err := client.Do(req)
	if err != nil {
		return response{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return response{}, err
	}
	return response{code: resp.StatusCode, header: resp.Header, body: responseBody}, nil
}

// prettyJSON indents raw in place, keeping the server's key order and
// number literals.
func prettyJSON(raw []byte) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", false
	}
	var out bytes.Buffer
	if err := json.Indent(&out, bytes.TrimSpace(raw), "", "  "); err != nil {
		return "", false
	}
	return out.String(), true
}

func writeUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: astrachatctl [flags] <command>")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "commands:")
	_, _ = fmt.Fprintln(w, "  ask <question...>  POST /api/query and print the result")
	_, _ = fmt.Fprintln(w, "  history [id]       GET /api/history or /api/history/{id}")
	_, _ = fmt.Fprintln(w, "  health             GET /api/health")
	_, _ = fmt.Fprintln(w, "  ready              GET /api/ready")
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
