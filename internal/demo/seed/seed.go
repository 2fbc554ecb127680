// Package seed writes synthetic cm.astra_logging and cm.ad_click_et parquet
// files so the DuckDB engine can answer questions without a ClickHouse
// cluster.
package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
)

const (
	LoggingTable = "astra_logging"
	ClickTable   = "ad_click_et"
	Schema       = "cm"
)

type Summary struct {
	LoggingRows int
	ClickRows   int
	Files       []string
}

type Service struct {
	cfg Config
	log *slog.Logger
	now func() time.Time
}

func NewService(cfg Config, logger *slog.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		cfg: cfg,
		log: logger,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

// Run generates cfg.Auctions auctions spread evenly over cfg.Files part
// files per table. Existing part files with the same names are replaced.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	generator := NewGenerator(s.cfg.Seed, s.cfg.ClickRatePct, s.cfg.UserCardinality, s.cfg.Days, s.now())

	var summary Summary
	perFile := (s.cfg.Auctions + s.cfg.Files - 1) / s.cfg.Files
	remaining := s.cfg.Auctions
	for part := 0; part < s.cfg.Files && remaining > 0; part++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		count := min(perFile, remaining)
		remaining -= count

		logs := make([]LogRecord, 0, count)
		clicks := make([]ClickRecord, 0, count*s.cfg.ClickRatePct/100+1)
		for i := 0; i < count; i++ {
			logRow, click := generator.Next()
			logs = append(logs, logRow)
			if click != nil {
				clicks = append(clicks, *click)
			}
		}

		logPath := s.partPath(LoggingTable, part)
		if err := writeParquet(logPath, logs); err != nil {
			return summary, err
		}
		clickPath := s.partPath(ClickTable, part)
		if err := writeParquet(clickPath, clicks); err != nil {
			return summary, err
		}

		summary.LoggingRows += len(logs)
		summary.ClickRows += len(clicks)
		summary.Files = append(summary.Files, logPath, clickPath)
		s.log.Info(
			"wrote demo part",
			slog.Int("part", part),
			slog.Int("logging_rows", len(logs)),
			slog.Int("click_rows", len(clicks)),
		)
	}
	return summary, nil
}

// TableMapping returns the ASTRACHAT_DUCKDB_TABLES value that exposes the
// generated files as cm.astra_logging and cm.ad_click_et.
func (s *Service) TableMapping() string {
	entries := make([]string, 0, 2)
	for _, table := range []string{LoggingTable, ClickTable} {
		entries = append(entries, fmt.Sprintf("%s.%s=%s", Schema, table, filepath.Join(s.tableDir(table), "*.parquet")))
	}
	return strings.Join(entries, ",")
}

func (s *Service) tableDir(table string) string {
	return filepath.Join(s.cfg.OutputDir, table)
}

func (s *Service) partPath(table string, part int) string {
	return filepath.Join(s.tableDir(table), fmt.Sprintf("part-%05d.parquet", part))
}

func writeParquet[T any](path string, rows []T) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close parquet file: %w", closeErr)
		}
	}()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}
