package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rana718/synthdb/internal/errors"
)

const companySnapshot = `
schema: public
tables:
  - name: company
    rows: 2
    columns:
      - {name: id, type: integer, primary_key: true}
      - {name: name, type: "character varying(80)"}
  - name: employee
    rows: 5
    columns:
      - {name: id, type: integer, primary_key: true}
      - {name: company_id, type: integer, references: company.id}
      - {name: manager_id, type: integer, nullable: true}
      - {name: email, type: text, unique: true}
      - {name: salary, type: "numeric(8,2)", check: "salary > 0"}
      - {name: status, type: enum, values: [active, left]}
    foreign_keys:
      - {columns: [manager_id], ref_table: employee, ref_columns: [id]}
`

func TestParseSnapshot(t *testing.T) {
	s, err := ParseSnapshot([]byte(companySnapshot))
	require.NoError(t, err)

	assert.Equal(t, "public", s.Name)
	assert.Equal(t, []string{"company", "employee"}, s.TableNames())

	emp, ok := s.Table("employee")
	require.True(t, ok)
	assert.Equal(t, 5, emp.Rows)
	require.Len(t, emp.ForeignKeys, 2)
	assert.True(t, emp.IsHard(&emp.ForeignKeys[0]))
	assert.False(t, emp.IsHard(&emp.ForeignKeys[1]))

	salary, _ := emp.Column("salary")
	assert.Equal(t, 8, salary.Precision)
	assert.Equal(t, 2, salary.Scale)
	require.NotNil(t, salary.Min)
	assert.InDelta(t, 0.01, *salary.Min, 1e-9)

	name, _ := s.Tables[0].Column("name")
	assert.Equal(t, 80, name.MaxLength)

	assert.Equal(t, [][]string{{"id"}, {"email"}}, emp.UniqueConstraints())
}

func TestParseSnapshotJSON(t *testing.T) {
	data := `{"tables": [{"name": "t", "columns": [{"name": "id", "type": "uuid", "primary_key": true}]}]}`
	s, err := ParseSnapshot([]byte(data))
	require.NoError(t, err)
	col, _ := s.Tables[0].Column("id")
	assert.Equal(t, TypeUUID, col.Type)
	assert.False(t, col.Nullable)
}

func TestLoadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(companySnapshot), 0o644))

	s, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Len(t, s.Tables, 2)

	_, err = LoadSnapshot(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseSnapshotErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", "tables: [ {name: "},
		{"unsupported type", "tables: [{name: t, columns: [{name: g, type: geometry}]}]"},
		{"duplicate table", "tables: [{name: t, columns: [{name: a, type: text}]}, {name: t, columns: [{name: a, type: text}]}]"},
		{"duplicate column", "tables: [{name: t, columns: [{name: a, type: text}, {name: a, type: text}]}]"},
		{"unknown fk table", "tables: [{name: t, columns: [{name: a, type: integer, references: nope.id}]}]"},
		{"unknown fk column", "tables: [{name: p, columns: [{name: id, type: integer}]}, {name: t, columns: [{name: a, type: integer, references: p.nope}]}]"},
		{"fk arity", "tables: [{name: p, columns: [{name: id, type: integer}]}, {name: t, columns: [{name: a, type: integer}], foreign_keys: [{columns: [a], ref_table: p, ref_columns: [id, id]}]}]"},
		{"scale over precision", "tables: [{name: t, columns: [{name: a, type: numeric, precision: 2, scale: 3}]}]"},
		{"empty enum", "tables: [{name: t, columns: [{name: a, type: enum}]}]"},
		{"negative rows", "tables: [{name: t, rows: -1, columns: [{name: a, type: text}]}]"},
		{"unsupported check", "tables: [{name: t, columns: [{name: a, type: text, check: \"a ~ 'x'\"}]}]"},
		{"unknown unique column", "tables: [{name: t, columns: [{name: a, type: text}], unique_keys: [[a, b]]}]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSnapshot([]byte(tt.data))
			require.Error(t, err)
			var se *errors.SchemaError
			assert.True(t, errors.As(err, &se), "want SchemaError, got %v", err)
			assert.Equal(t, errors.ExitSchema, errors.ExitCode(err))
		})
	}
}

func TestExclude(t *testing.T) {
	s, err := ParseSnapshot([]byte(`
tables:
  - name: audit_log
    columns: [{name: id, type: integer, primary_key: true}]
  - name: users
    columns:
      - {name: id, type: integer, primary_key: true}
      - {name: last_audit, type: integer, nullable: true, references: audit_log.id}
  - name: audit_detail
    columns:
      - {name: id, type: integer, primary_key: true}
      - {name: log_id, type: integer, references: audit_log.id}
`))
	require.NoError(t, err)

	out, dropped, err := Exclude(s, []string{"audit_*"})
	require.NoError(t, err)
	assert.Equal(t, []string{"audit_log", "audit_detail"}, dropped)
	assert.Equal(t, []string{"users"}, out.TableNames())
	assert.Empty(t, out.Tables[0].ForeignKeys)
	// the input is untouched
	assert.Len(t, s.Tables[1].ForeignKeys, 1)

	_, _, err = Exclude(s, []string{"audit_log"})
	var se *errors.SchemaError
	assert.True(t, errors.As(err, &se))

	_, _, err = Exclude(s, []string{"[bad"})
	var ce *errors.ConfigError
	assert.True(t, errors.As(err, &ce))

	same, dropped, err := Exclude(s, nil)
	require.NoError(t, err)
	assert.Same(t, s, same)
	assert.Empty(t, dropped)
}
