package export

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Rana718/synthdb/internal/errors"
	"github.com/Rana718/synthdb/internal/types"
)

// insertBatchSize is the number of rows per multi-row INSERT statement.
const insertBatchSize = 100

// SQLFile streams the dataset as a SQL script that loads it in one
// transaction with constraint checks deferred to commit.
type SQLFile struct {
	path string
	tmp  *os.File
	w    *bufio.Writer
	// sequences collects one setval statement per sequence-backed column.
	sequences []string
}

func NewSQLFile(path string) *SQLFile {
	return &SQLFile{path: path}
}

func (s *SQLFile) Begin(ctx context.Context) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "failed to create output directory")
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temporary output file")
	}
	s.tmp = tmp
	s.w = bufio.NewWriter(tmp)
	s.sequences = nil
	_, err = s.w.WriteString("-- generated by synthdb at " + time.Now().UTC().Format(time.RFC3339) + "\nBEGIN;\nSET CONSTRAINTS ALL DEFERRED;\n\n")
	return errors.Wrap(err, "failed to write output")
}

func (s *SQLFile) EmitBatch(ctx context.Context, batch types.Batch) error {
	for start := 0; start < len(batch.Rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(batch.Rows))
		stmt := InsertStatement(batch.Table, batch.Columns, batch.Rows[start:end], batch.OverrideIdentity)
		if _, err := s.w.WriteString(stmt); err != nil {
			return errors.Wrap(err, "failed to write output")
		}
	}
	for _, c := range batch.Sequences {
		s.sequences = append(s.sequences, SetvalStatement(batch.Table, c))
	}
	return nil
}

func (s *SQLFile) EmitPatch(ctx context.Context, patch types.Patch) error {
	_, err := s.w.WriteString(UpdateStatement(patch))
	return errors.Wrap(err, "failed to write output")
}

func (s *SQLFile) Commit(ctx context.Context) error {
	tail := "\n" + strings.Join(s.sequences, "") + "COMMIT;\n"
	if _, err := s.w.WriteString(tail); err != nil {
		s.Abort()
		return errors.Wrap(err, "failed to write output")
	}
	if err := s.w.Flush(); err != nil {
		s.Abort()
		return errors.Wrap(err, "failed to flush output")
	}
	name := s.tmp.Name()
	if err := s.tmp.Close(); err != nil {
		os.Remove(name)
		return errors.Wrap(err, "failed to close output file")
	}
	s.tmp = nil
	if err := os.Rename(name, s.path); err != nil {
		os.Remove(name)
		return errors.Wrapf(err, "failed to move output into %s", s.path)
	}
	return nil
}

func (s *SQLFile) Abort() error {
	if s.tmp == nil {
		return nil
	}
	name := s.tmp.Name()
	s.tmp.Close()
	s.tmp = nil
	return os.Remove(name)
}

// InsertStatement renders one multi-row INSERT. override adds OVERRIDING
// SYSTEM VALUE for tables whose identity is GENERATED ALWAYS.
func InsertStatement(table string, columns []string, rows []types.Row, override bool) string {
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(pq.QuoteIdentifier(table))
	sb.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(pq.QuoteIdentifier(c))
	}
	sb.WriteString(")")
	if override {
		sb.WriteString(" OVERRIDING SYSTEM VALUE")
	}
	sb.WriteString(" VALUES\n")
	for r, row := range rows {
		sb.WriteString("  (")
		for i, c := range columns {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(Literal(row[c]))
		}
		sb.WriteString(")")
		if r < len(rows)-1 {
			sb.WriteString(",\n")
		}
	}
	sb.WriteString(";\n")
	return sb.String()
}

// SetvalStatement moves the sequence behind table.column past the largest
// loaded value, or resets it when the table is empty.
func SetvalStatement(table, column string) string {
	col := pq.QuoteIdentifier(column)
	return "SELECT setval(pg_get_serial_sequence(" + pq.QuoteLiteral(pq.QuoteIdentifier(table)) + ", " +
		pq.QuoteLiteral(column) + "), COALESCE(max(" + col + "), 1), max(" + col + ") IS NOT NULL) FROM " +
		pq.QuoteIdentifier(table) + ";\n"
}

// UpdateStatement renders the UPDATE of one patch event.
func UpdateStatement(p types.Patch) string {
	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(pq.QuoteIdentifier(p.Table))
	sb.WriteString(" SET ")
	for i, c := range sortedKeys(p.Values) {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(pq.QuoteIdentifier(c) + " = " + Literal(p.Values[c]))
	}
	sb.WriteString(" WHERE ")
	for i, c := range sortedKeys(p.Key) {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		sb.WriteString(pq.QuoteIdentifier(c) + " = " + Literal(p.Key[c]))
	}
	sb.WriteString(";\n")
	return sb.String()
}

// Literal renders a value as a SQL literal.
func Literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case types.Numeric:
		return x.String()
	case types.Array:
		return pq.QuoteLiteral(x.Literal())
	case uuid.UUID:
		return pq.QuoteLiteral(x.String())
	case time.Time, types.Date, types.TimeOfDay, types.JSON:
		return pq.QuoteLiteral(types.Format(x))
	}
	return pq.QuoteLiteral(types.Format(v))
}
