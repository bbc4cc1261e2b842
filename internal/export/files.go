package export

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Rana718/synthdb/internal/errors"
	"github.com/Rana718/synthdb/internal/types"
)

func sortedKeys(r types.Row) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Document is the JSON output layout.
type Document struct {
	GeneratedAt string          `json:"generated_at"`
	Tables      []TableDocument `json:"tables"`
}

// TableDocument is one table of a Document.
type TableDocument struct {
	Name    string      `json:"name"`
	Columns []string    `json:"columns"`
	Rows    []types.Row `json:"rows"`
}

// JSONFile writes the dataset as one JSON document on Commit.
type JSONFile struct {
	*Memory
	path string
}

func NewJSONFile(path string) *JSONFile {
	return &JSONFile{Memory: NewMemory(), path: path}
}

func (j *JSONFile) Commit(ctx context.Context) error {
	doc := Document{GeneratedAt: time.Now().UTC().Format(time.RFC3339)}
	for _, b := range j.Batches() {
		doc.Tables = append(doc.Tables, TableDocument{Name: b.Table, Columns: b.Columns, Rows: b.Rows})
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal data")
	}
	if err := stage(j.path, func(f *os.File) error {
		_, err := f.Write(data)
		return errors.Wrap(err, "failed to write file")
	}); err != nil {
		return err
	}
	return j.Memory.Commit(ctx)
}

// CSVDir writes one CSV file per table into a directory on Commit. The
// directory is built under a temporary name and renamed into place.
type CSVDir struct {
	*Memory
	path string
}

func NewCSVDir(path string) *CSVDir {
	return &CSVDir{Memory: NewMemory(), path: path}
}

func (c *CSVDir) Commit(ctx context.Context) error {
	parent := filepath.Dir(c.path)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return errors.Wrap(err, "failed to create export directory")
	}
	tmp, err := os.MkdirTemp(parent, "."+filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create CSV directory")
	}
	for _, b := range c.Batches() {
		if err := writeCSV(filepath.Join(tmp, b.Table+".csv"), b); err != nil {
			os.RemoveAll(tmp)
			return err
		}
	}
	if err := os.RemoveAll(c.path); err != nil {
		os.RemoveAll(tmp)
		return errors.Wrapf(err, "failed to replace %s", c.path)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		os.RemoveAll(tmp)
		return errors.Wrapf(err, "failed to move output into %s", c.path)
	}
	return c.Memory.Commit(ctx)
}

func writeCSV(path string, b types.Batch) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create CSV file for %s", b.Table)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(b.Columns); err != nil {
		return errors.Wrap(err, "failed to write CSV header")
	}
	values := make([]string, len(b.Columns))
	for _, row := range b.Rows {
		for i, col := range b.Columns {
			values[i] = types.Format(row[col])
		}
		if err := writer.Write(values); err != nil {
			return errors.Wrapf(err, "failed to write CSV row for %s", b.Table)
		}
	}
	writer.Flush()
	return errors.Wrap(writer.Error(), "failed to flush CSV")
}

// SQLiteFile writes the dataset into a SQLite database file on Commit.
type SQLiteFile struct {
	*Memory
	path string
}

func NewSQLiteFile(path string) *SQLiteFile {
	return &SQLiteFile{Memory: NewMemory(), path: path}
}

func (s *SQLiteFile) Commit(ctx context.Context) error {
	if err := stage(s.path, func(f *os.File) error {
		return s.write(ctx, f.Name())
	}); err != nil {
		return err
	}
	return s.Memory.Commit(ctx)
}

func (s *SQLiteFile) write(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return errors.Wrap(err, "failed to create SQLite database")
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin SQLite transaction")
	}
	for _, b := range s.Batches() {
		if err := createAndFill(ctx, tx, b); err != nil {
			tx.Rollback()
			return err
		}
	}
	return errors.Wrap(tx.Commit(), "failed to commit SQLite transaction")
}

func createAndFill(ctx context.Context, tx *sql.Tx, b types.Batch) error {
	defs := make([]string, len(b.Columns))
	for i, col := range b.Columns {
		defs[i] = pq.QuoteIdentifier(col) + " " + sqliteType(b.Rows, col)
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", pq.QuoteIdentifier(b.Table), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return errors.Wrapf(err, "failed to create table %s", b.Table)
	}
	if len(b.Rows) == 0 {
		return nil
	}

	names := make([]string, len(b.Columns))
	marks := make([]string, len(b.Columns))
	for i, col := range b.Columns {
		names[i] = pq.QuoteIdentifier(col)
		marks[i] = "?"
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pq.QuoteIdentifier(b.Table), strings.Join(names, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return errors.Wrapf(err, "failed to prepare insert for %s", b.Table)
	}
	defer stmt.Close()

	args := make([]any, len(b.Columns))
	for r, row := range b.Rows {
		for i, col := range b.Columns {
			args[i] = sqliteValue(row[col])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return errors.Wrapf(err, "failed to insert row %d into %s", r, b.Table)
		}
	}
	return nil
}

// sqliteType picks a column affinity from the first non-NULL value.
func sqliteType(rows []types.Row, col string) string {
	for _, row := range rows {
		switch row[col].(type) {
		case nil:
			continue
		case int64, int, bool:
			return "INTEGER"
		case float64, types.Numeric:
			return "NUMERIC"
		default:
			return "TEXT"
		}
	}
	return "TEXT"
}

func sqliteValue(v any) any {
	switch x := v.(type) {
	case nil, int64, int, bool, float64, string:
		return x
	case types.Numeric:
		return x.String()
	}
	return types.Format(v)
}
