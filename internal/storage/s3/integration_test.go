//go:build integration

package s3

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/astrachat/astrachat/internal/storage"
)

func TestStorePutAgainstMinIO(t *testing.T) {
	endpoint := envOr("ASTRACHAT_TEST_S3_ENDPOINT", "")
	if endpoint == "" {
		t.Skip("ASTRACHAT_TEST_S3_ENDPOINT is not set")
	}

	cfg := Config{
		Endpoint:         endpoint,
		Region:           envOr("ASTRACHAT_TEST_S3_REGION", "us-east-1"),
		Bucket:           envOr("ASTRACHAT_TEST_S3_BUCKET", "astrachat-it"),
		AccessKeyID:      envOr("ASTRACHAT_TEST_S3_ACCESS_KEY", "minio"),
		SecretAccessKey:  envOr("ASTRACHAT_TEST_S3_SECRET_KEY", "miniostorage"),
		UseSSL:           false,
		Prefix:           "integration-tests",
		AutoCreateBucket: true,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	store, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := store.HealthCheck(ctx); err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}

	key, err := storage.BuildHistoryEntryPath("integration-entry", time.Now())
	if err != nil {
		t.Fatalf("BuildHistoryEntryPath() error = %v", err)
	}
	payload := []byte(`{"id":"integration-entry"}`)

	info, err := store.Put(ctx, key, bytes.NewReader(payload), int64(len(payload)), storage.PutOptions{ContentType: "application/json"})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if !strings.HasSuffix(info.Key, key) {
		t.Fatalf("Put().Key = %q, want suffix %q", info.Key, key)
	}
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
