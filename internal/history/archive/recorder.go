// Package archive writes history entries to an object store as one JSON
// document per entry.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/astrachat/astrachat/internal/history"
	"github.com/astrachat/astrachat/internal/storage"
)

type Recorder struct {
	store storage.ObjectStore
}

func NewRecorder(store storage.ObjectStore) *Recorder {
	return &Recorder{store: store}
}

func (r *Recorder) Record(ctx context.Context, entry history.Entry) error {
	key, err := storage.BuildHistoryEntryPath(entry.ID, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("build archive key: %w", err)
	}
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode history entry: %w", err)
	}
	opts := storage.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"status": string(entry.Status)},
	}
	if entry.Principal != "" {
		opts.Metadata["principal"] = entry.Principal
	}
	if _, err := r.store.Put(ctx, key, bytes.NewReader(body), int64(len(body)), opts); err != nil {
		return fmt.Errorf("archive history entry %s: %w", entry.ID, err)
	}
	return nil
}

func (r *Recorder) HealthCheck(ctx context.Context) error {
	return r.store.HealthCheck(ctx)
}
