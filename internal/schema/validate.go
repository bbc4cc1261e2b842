package schema

import (
	"path"

	"github.com/Rana718/synthdb/internal/errors"
)

// Validate rejects snapshots the engine cannot generate data for. It runs
// before any graph analysis so every problem is reported up front.
func Validate(s *Schema) error {
	tables := make(map[string]*Table, len(s.Tables))
	for i := range s.Tables {
		t := &s.Tables[i]
		if t.Name == "" {
			return errors.NewSchemaError("", "", "table #%d has no name", i)
		}
		if _, dup := tables[t.Name]; dup {
			return errors.NewSchemaError(t.Name, "", "declared twice")
		}
		tables[t.Name] = t
		if t.Rows < 0 {
			return errors.NewSchemaError(t.Name, "", "negative row target %d", t.Rows)
		}
		if err := validateColumns(t); err != nil {
			return err
		}
	}

	for i := range s.Tables {
		t := &s.Tables[i]
		for _, fk := range t.ForeignKeys {
			if err := validateForeignKey(t, fk, tables); err != nil {
				return err
			}
		}
		for _, uk := range t.UniqueKeys {
			for _, name := range uk {
				if _, ok := t.Column(name); !ok {
					return errors.NewSchemaError(t.Name, name, "unique key names an unknown column")
				}
			}
		}
	}
	return nil
}

func validateColumns(t *Table) error {
	seen := make(map[string]bool, len(t.Columns))
	if len(t.Columns) == 0 {
		return errors.NewSchemaError(t.Name, "", "has no columns")
	}
	for _, c := range t.Columns {
		if c.Name == "" {
			return errors.NewSchemaError(t.Name, "", "column without a name")
		}
		if seen[c.Name] {
			return errors.NewSchemaError(t.Name, c.Name, "declared twice")
		}
		seen[c.Name] = true

		switch {
		case c.Type == TypeUnknown:
			return errors.NewSchemaError(t.Name, c.Name, "unsupported type category %q", c.SQLType)
		case c.MaxLength < 0:
			return errors.NewSchemaError(t.Name, c.Name, "negative max length %d", c.MaxLength)
		case c.Type == TypeNumeric && c.Precision < 0:
			return errors.NewSchemaError(t.Name, c.Name, "negative precision %d", c.Precision)
		case c.Type == TypeNumeric && c.Precision > 0 && c.Scale > c.Precision:
			return errors.NewSchemaError(t.Name, c.Name, "scale %d exceeds precision %d", c.Scale, c.Precision)
		case c.Scale < 0:
			return errors.NewSchemaError(t.Name, c.Name, "negative scale %d", c.Scale)
		case c.Type == TypeEnum && len(c.Values) == 0:
			return errors.NewSchemaError(t.Name, c.Name, "enumeration without allowed values")
		case c.Check != "" && len(c.Values) == 0 && c.Min != nil && c.Max != nil && *c.Min > *c.Max:
			return errors.NewSchemaError(t.Name, c.Name, "CHECK admits no value: %s", c.Check)
		}
	}
	return nil
}

func validateForeignKey(t *Table, fk ForeignKey, tables map[string]*Table) error {
	if len(fk.Columns) == 0 || len(fk.Columns) != len(fk.RefColumns) {
		return errors.NewSchemaError(t.Name, "", "foreign key to %s has %d columns but references %d",
			fk.RefTable, len(fk.Columns), len(fk.RefColumns))
	}
	parent, ok := tables[fk.RefTable]
	if !ok {
		return errors.NewSchemaError(t.Name, fk.Columns[0], "references unknown table %q", fk.RefTable)
	}
	for i, name := range fk.Columns {
		if _, ok := t.Column(name); !ok {
			return errors.NewSchemaError(t.Name, name, "foreign key column does not exist")
		}
		if _, ok := parent.Column(fk.RefColumns[i]); !ok {
			return errors.NewSchemaError(t.Name, name, "references unknown column %s.%s", fk.RefTable, fk.RefColumns[i])
		}
	}
	return nil
}

// Exclude returns a copy of the schema without the tables whose names match
// any of the glob patterns. A soft foreign key into an excluded table is
// dropped (its columns stay NULL); a hard one is an error because no valid
// value could be produced.
func Exclude(s *Schema, patterns []string) (*Schema, []string, error) {
	if len(patterns) == 0 {
		return s, nil, nil
	}
	excluded := make(map[string]bool)
	var dropped []string
	for _, t := range s.Tables {
		for _, p := range patterns {
			match, err := path.Match(p, t.Name)
			if err != nil {
				return nil, nil, errors.WithStack(&errors.ConfigError{Field: "exclude", Reason: err.Error()})
			}
			if match {
				excluded[t.Name] = true
				dropped = append(dropped, t.Name)
				break
			}
		}
	}

	out := &Schema{Name: s.Name}
	for _, t := range s.Tables {
		if excluded[t.Name] {
			continue
		}
		kept := t
		kept.ForeignKeys = nil
		for _, fk := range t.ForeignKeys {
			if !excluded[fk.RefTable] {
				kept.ForeignKeys = append(kept.ForeignKeys, fk)
				continue
			}
			if t.IsHard(&fk) {
				return nil, nil, errors.WithHint(
					errors.NewSchemaError(t.Name, fk.Columns[0], "NOT NULL foreign key into excluded table %s", fk.RefTable),
					"exclude the referencing table as well")
			}
		}
		out.Tables = append(out.Tables, kept)
	}
	return out, dropped, nil
}
