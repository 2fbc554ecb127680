package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	HeaderClientID     = "CF-Access-Client-Id"
	HeaderClientSecret = "CF-Access-Client-Secret"
)

var ErrMissingEndpoint = errors.New("clickhouse endpoint is not configured")

type Config struct {
	URL          string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
	HTTPClient   *http.Client
}

// Executor sends statements to the ClickHouse HTTP interface behind
// Cloudflare Access.
type Executor struct {
	url          string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

func NewExecutor(cfg Config) *Executor {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Executor{
		url:          strings.TrimSpace(cfg.URL),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient:   httpClient,
	}
}

// Configured reports whether an endpoint URL is set.
func (e *Executor) Configured() bool {
	return e.url != ""
}

// Execute posts sql verbatim as the request body. The response body is
// returned for every status code.
func (e *Executor) Execute(ctx context.Context, sql string) (string, error) {
	if e.url == "" {
		return "", ErrMissingEndpoint
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, strings.NewReader(sql))
	if err != nil {
		return "", fmt.Errorf("build clickhouse request: %w", err)
	}
	req.Header.Set(HeaderClientID, e.clientID)
	req.Header.Set(HeaderClientSecret, e.clientSecret)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("clickhouse request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read clickhouse response: %w", err)
	}
	return string(body), nil
}
