package archive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/astrachat/astrachat/internal/history"
	"github.com/astrachat/astrachat/internal/storage"
)

func TestRecordWritesJSONUnderDatedKey(t *testing.T) {
	store := &memoryStore{objects: map[string][]byte{}}
	recorder := NewRecorder(store)
	entry := history.Entry{
		ID:            "0b4f9d5e-6a57-4c55-9c1e-3f3f0d1a2b3c",
		Principal:     "alice",
		Message:       "show total revenue by device type",
		SQL:           "SELECT device_type, SUM(net_total_revenue) FROM cm.ad_click_et GROUP BY device_type",
		Status:        history.StatusSucceeded,
		ResponseBytes: 29,
		DurationMs:    812,
		CreatedAt:     time.Date(2026, time.February, 19, 9, 30, 0, 0, time.UTC),
	}

	if err := recorder.Record(context.Background(), entry); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	key := "history/2026/02/19/0b4f9d5e-6a57-4c55-9c1e-3f3f0d1a2b3c.json"
	body, ok := store.objects[key]
	if !ok {
		t.Fatalf("object %q not written; have %v", key, store.keys())
	}
	if store.contentTypes[key] != "application/json" {
		t.Fatalf("content type = %q", store.contentTypes[key])
	}
	if meta := store.metadata[key]; meta["status"] != "succeeded" || meta["principal"] != "alice" {
		t.Fatalf("metadata = %v", meta)
	}
	var decoded history.Entry
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("decode archived entry: %v", err)
	}
	if decoded.SQL != entry.SQL || decoded.Status != history.StatusSucceeded || !decoded.CreatedAt.Equal(entry.CreatedAt) {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestRecordRejectsInvalidID(t *testing.T) {
	store := &memoryStore{objects: map[string][]byte{}}
	if err := NewRecorder(store).Record(context.Background(), history.Entry{ID: "../escape"}); err == nil {
		t.Fatal("expected invalid id error")
	}
	if len(store.objects) != 0 {
		t.Fatalf("objects written = %v", store.keys())
	}
}

func TestRecordWrapsStoreError(t *testing.T) {
	boom := errors.New("bucket unavailable")
	store := &memoryStore{objects: map[string][]byte{}, putErr: boom}
	err := NewRecorder(store).Record(context.Background(), history.Entry{ID: "e1", CreatedAt: time.Now()})
	if !errors.Is(err, boom) {
		t.Fatalf("Record() error = %v, want wrapped %v", err, boom)
	}
}

type memoryStore struct {
	objects      map[string][]byte
	contentTypes map[string]string
	metadata     map[string]map[string]string
	putErr       error
}

func (m *memoryStore) Put(_ context.Context, key string, body io.Reader, size int64, opts storage.PutOptions) (storage.ObjectInfo, error) {
	if m.putErr != nil {
		return storage.ObjectInfo{}, m.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	if m.contentTypes == nil {
		m.contentTypes = map[string]string{}
		m.metadata = map[string]map[string]string{}
	}
	m.objects[key] = data
	m.contentTypes[key] = opts.ContentType
	m.metadata[key] = opts.Metadata
	return storage.ObjectInfo{Key: key, Size: size}, nil
}

func (m *memoryStore) HealthCheck(context.Context) error {
	return nil
}

func (m *memoryStore) keys() []string {
	keys := make([]string, 0, len(m.objects))
	for key := range m.objects {
		keys = append(keys, key)
	}
	return keys
}
