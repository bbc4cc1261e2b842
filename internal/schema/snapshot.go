package schema

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Rana718/synthdb/internal/errors"
)

// snapshotFile is the on-disk form of a schema snapshot. JSON snapshots
// decode through the same structs since YAML is a superset of JSON.
type snapshotFile struct {
	Schema string          `yaml:"schema" json:"schema"`
	Tables []snapshotTable `yaml:"tables" json:"tables"`
}

type snapshotTable struct {
	Name        string               `yaml:"name" json:"name"`
	Rows        int                  `yaml:"rows,omitempty" json:"rows,omitempty"`
	Columns     []snapshotColumn     `yaml:"columns" json:"columns"`
	ForeignKeys []snapshotForeignKey `yaml:"foreign_keys,omitempty" json:"foreign_keys,omitempty"`
	UniqueKeys  [][]string           `yaml:"unique_keys,omitempty" json:"unique_keys,omitempty"`
}

type snapshotColumn struct {
	Name       string   `yaml:"name" json:"name"`
	Type       string   `yaml:"type" json:"type"`
	Nullable   bool     `yaml:"nullable,omitempty" json:"nullable,omitempty"`
	HasDefault bool     `yaml:"has_default,omitempty" json:"has_default,omitempty"`
	Identity   string   `yaml:"identity,omitempty" json:"identity,omitempty"` // serial, by_default or always
	MaxLength  int      `yaml:"max_length,omitempty" json:"max_length,omitempty"`
	Precision  int      `yaml:"precision,omitempty" json:"precision,omitempty"`
	Scale      int      `yaml:"scale,omitempty" json:"scale,omitempty"`
	Unique     bool     `yaml:"unique,omitempty" json:"unique,omitempty"`
	PrimaryKey bool     `yaml:"primary_key,omitempty" json:"primary_key,omitempty"`
	Check      string   `yaml:"check,omitempty" json:"check,omitempty"`
	Values     []string `yaml:"values,omitempty" json:"values,omitempty"`
	References string   `yaml:"references,omitempty" json:"references,omitempty"` // "table.column" shorthand
}

type snapshotForeignKey struct {
	Name       string   `yaml:"name,omitempty" json:"name,omitempty"`
	Columns    []string `yaml:"columns" json:"columns"`
	RefTable   string   `yaml:"ref_table" json:"ref_table"`
	RefColumns []string `yaml:"ref_columns" json:"ref_columns"`
}

// LoadSnapshot reads a schema snapshot from a YAML or JSON file, or from a
// DDL script when the file ends in .sql.
func LoadSnapshot(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read snapshot %s", path)
	}
	if strings.EqualFold(filepath.Ext(path), ".sql") {
		return ParseDDL(string(data))
	}
	return ParseSnapshot(data)
}

// ParseSnapshot decodes snapshot bytes and converts them into a validated Schema.
func ParseSnapshot(data []byte) (*Schema, error) {
	var file snapshotFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.WithStack(&errors.SchemaError{Reason: "malformed snapshot: " + err.Error()})
	}

	s := &Schema{Name: file.Schema}
	for _, st := range file.Tables {
		t := Table{Name: st.Name, Rows: st.Rows, UniqueKeys: st.UniqueKeys}
		for _, sc := range st.Columns {
			col, err := convertColumn(st.Name, sc)
			if err != nil {
				return nil, err
			}
			t.Columns = append(t.Columns, col)
			if sc.References != "" {
				fk, err := parseReference(st.Name, sc.Name, sc.References)
				if err != nil {
					return nil, err
				}
				t.ForeignKeys = append(t.ForeignKeys, fk)
			}
		}
		for _, sf := range st.ForeignKeys {
			t.ForeignKeys = append(t.ForeignKeys, ForeignKey{
				Name:       sf.Name,
				Columns:    sf.Columns,
				RefTable:   sf.RefTable,
				RefColumns: sf.RefColumns,
			})
		}
		s.Tables = append(s.Tables, t)
	}

	if err := Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

func convertColumn(table string, sc snapshotColumn) (Column, error) {
	col := Column{
		Name:       sc.Name,
		Nullable:   sc.Nullable,
		HasDefault: sc.HasDefault,
		Unique:     sc.Unique,
		PrimaryKey: sc.PrimaryKey,
		Check:      sc.Check,
		Values:     sc.Values,
	}

	if sc.Identity != "" {
		id, ok := ParseIdentity(sc.Identity)
		if !ok {
			return col, errors.NewSchemaError(table, sc.Name, "unknown identity %q", sc.Identity)
		}
		col.Identity = id
		col.HasDefault = true
	}

	if cat, ok := ParseCategory(sc.Type); ok {
		col.Type = cat
		col.SQLType = sc.Type
	} else {
		spec, err := ParseType(sc.Type)
		if err != nil {
			return col, errors.NewSchemaError(table, sc.Name, "%v", err)
		}
		col.Type = spec.Category
		col.SQLType = spec.SQLType
		col.MaxLength = spec.MaxLength
		col.Precision = spec.Precision
		col.Scale = spec.Scale
	}
	if sc.MaxLength > 0 {
		col.MaxLength = sc.MaxLength
	}
	if sc.Precision > 0 {
		col.Precision = sc.Precision
	}
	if sc.Scale > 0 {
		col.Scale = sc.Scale
	}
	if col.PrimaryKey {
		col.Nullable = false
	}
	if err := ApplyCheck(&col); err != nil {
		return col, errors.WithHint(
			errors.NewSchemaError(table, sc.Name, "%v", err),
			"exclude the table or replace the CHECK with an explicit values list")
	}
	return col, nil
}

func parseReference(table, column, ref string) (ForeignKey, error) {
	for i := len(ref) - 1; i > 0; i-- {
		if ref[i] == '.' {
			return ForeignKey{
				Columns:    []string{column},
				RefTable:   ref[:i],
				RefColumns: []string{ref[i+1:]},
			}, nil
		}
	}
	return ForeignKey{}, errors.NewSchemaError(table, column, "reference %q is not table.column", ref)
}
