package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"
)

// TableSpec maps a ClickHouse-style table name onto parquet files.
type TableSpec struct {
	Schema   string
	Name     string
	Location string
}

// ParseTableSpecs parses comma separated "schema.table=glob" pairs. The
// schema part is optional.
func ParseTableSpecs(raw string) ([]TableSpec, error) {
	specs := make([]TableSpec, 0)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, location, ok := strings.Cut(entry, "=")
		name = strings.TrimSpace(name)
		location = strings.TrimSpace(location)
		if !ok || name == "" || location == "" {
			return nil, fmt.Errorf("invalid table spec %q: expected schema.table=glob", entry)
		}
		spec := TableSpec{Name: name, Location: location}
		if schema, table, found := strings.Cut(name, "."); found {
			if schema == "" || table == "" || strings.Contains(table, ".") {
				return nil, fmt.Errorf("invalid table name %q", name)
			}
			spec.Schema, spec.Name = schema, table
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// Engine answers statements from a local DuckDB database, rendering results
// the way ClickHouse's HTTP interface does with TabSeparatedWithNames.
type Engine struct {
	db *sql.DB
}

// Open opens the database at path (in-memory when empty) and creates one
// read_parquet view per table spec.
func Open(ctx context.Context, path string, tables []TableSpec) (*Engine, error) {
	db, err := sql.Open("duckdb", strings.TrimSpace(path))
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	for _, table := range tables {
		if table.Schema != "" {
			if _, err := db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+quoteIdent(table.Schema)); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("create schema %q: %w", table.Schema, err)
			}
		}
		viewSQL := fmt.Sprintf(`CREATE OR REPLACE VIEW %s AS SELECT * FROM read_parquet(%s)`, qualifiedName(table), quoteString(table.Location))
		if _, err := db.ExecContext(ctx, viewSQL); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create view for table %q: %w", table.Name, err)
		}
	}
	return &Engine{db: db}, nil
}

func (e *Engine) Execute(ctx context.Context, sqlText string) (string, error) {
	rows, err := e.db.QueryContext(ctx, sqlText)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return err.Error() + "\n", nil
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return "", fmt.Errorf("query columns: %w", err)
	}

	var out strings.Builder
	writeTSVLine(&out, escapeNames(columns))
	fields := make([]string, len(columns))
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return "", fmt.Errorf("scan row: %w", err)
		}
		for i, value := range values {
			fields[i] = formatField(value)
		}
		writeTSVLine(&out, fields)
	}
	if err := rows.Err(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return err.Error() + "\n", nil
	}
	return out.String(), nil
}

func (e *Engine) HealthCheck(ctx context.Context) error {
	return e.db.PingContext(ctx)
}

func (e *Engine) Close() error {
	return e.db.Close()
}

var tsvEscaper = strings.NewReplacer(`\`, `\\`, "\t", `\t`, "\n", `\n`, "\r", `\r`)

// writeTSVLine writes fields that are already escaped.
func writeTSVLine(out *strings.Builder, fields []string) {
	out.WriteString(strings.Join(fields, "\t"))
	out.WriteByte('\n')
}

func escapeNames(columns []string) []string {
	escaped := make([]string, len(columns))
	for i, column := range columns {
		escaped[i] = tsvEscaper.Replace(column)
	}
	return escaped
}

func formatField(value any) string {
	switch typed := value.(type) {
	case nil:
		return `\N`
	case []byte:
		return tsvEscaper.Replace(string(typed))
	case string:
		return tsvEscaper.Replace(typed)
	case float64:
		return formatFloat(typed, 64)
	case float32:
		return formatFloat(float64(typed), 32)
	case bool:
		return strconv.FormatBool(typed)
	case time.Time:
		if typed.Hour() == 0 && typed.Minute() == 0 && typed.Second() == 0 && typed.Nanosecond() == 0 {
			return typed.Format(time.DateOnly)
		}
		return typed.Format(time.DateTime)
	default:
		return tsvEscaper.Replace(fmt.Sprint(typed))
	}
}

func formatFloat(value float64, bitSize int) string {
	switch {
	case math.IsNaN(value):
		return "nan"
	case math.IsInf(value, 1):
		return "inf"
	case math.IsInf(value, -1):
		return "-inf"
	}
	return strconv.FormatFloat(value, 'f', -1, bitSize)
}

func qualifiedName(table TableSpec) string {
	if table.Schema == "" {
		return quoteIdent(table.Name)
	}
	return quoteIdent(table.Schema) + "." + quoteIdent(table.Name)
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func quoteString(value string) string {
	return `'` + strings.ReplaceAll(value, `'`, `''`) + `'`
}
