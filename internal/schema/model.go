// Package schema holds the static description of the database a run
// generates data for: tables, columns, constraints and foreign keys, plus the
// table-level graph derived from them. Everything here is built once per run
// and never mutated afterwards.
package schema

import (
	"strings"
)

// Schema is an ordered list of tables. Declaration order is significant: it
// breaks ties wherever the engine has to choose between tables.
type Schema struct {
	Name   string
	Tables []Table
}

// Table is one relation of the snapshot.
type Table struct {
	Name        string
	Columns     []Column
	ForeignKeys []ForeignKey
	// UniqueKeys lists multi-column UNIQUE constraints. Single-column
	// constraints are carried by Column.Unique.
	UniqueKeys [][]string
	// Rows is the declared row count target. Zero means "use the run default".
	Rows int
}

// Column describes one column and the constraints generated values must honour.
type Column struct {
	Name       string
	Type       TypeCategory
	SQLType    string // raw type name as reported by the database, informational
	Nullable   bool
	HasDefault bool
	// Identity says how the database fills the column on its own.
	Identity Identity
	// MaxLength bounds text values in characters. Zero means unbounded.
	MaxLength int
	// Precision and Scale bound numeric values; Precision zero means unbounded.
	Precision  int
	Scale      int
	Unique     bool
	PrimaryKey bool
	// Check is the raw CHECK expression, if any.
	Check string
	// Values is the explicit allowed-value set (enum labels or CHECK ... IN).
	Values []string
	// Min and Max are numeric bounds extracted from a CHECK expression.
	Min *float64
	Max *float64
}

// Identity is the kind of sequence backing a column.
type Identity int

const (
	NoIdentity Identity = iota
	// Serial is a nextval() default (serial, bigserial).
	Serial
	// IdentityByDefault is GENERATED BY DEFAULT AS IDENTITY.
	IdentityByDefault
	// IdentityAlways is GENERATED ALWAYS AS IDENTITY; explicit values need
	// OVERRIDING SYSTEM VALUE.
	IdentityAlways
)

var identityNames = map[Identity]string{
	NoIdentity:        "",
	Serial:            "serial",
	IdentityByDefault: "by_default",
	IdentityAlways:    "always",
}

func (i Identity) String() string { return identityNames[i] }

// ParseIdentity reads the snapshot spelling of an identity kind. The
// information_schema spellings ("ALWAYS", "BY DEFAULT") are accepted too.
func ParseIdentity(s string) (Identity, bool) {
	s = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
	for k, name := range identityNames {
		if name == s {
			return k, true
		}
	}
	return NoIdentity, false
}

// ForeignKey links child columns of the owning table to parent columns of RefTable.
type ForeignKey struct {
	Name       string
	Columns    []string
	RefTable   string
	RefColumns []string
}

// OverridesIdentity reports whether inserts with explicit keys need
// OVERRIDING SYSTEM VALUE.
func (t *Table) OverridesIdentity() bool {
	for i := range t.Columns {
		if t.Columns[i].Identity == IdentityAlways {
			return true
		}
	}
	return false
}

// SequenceColumns lists the columns backed by a sequence, whose position
// has to be moved past explicitly inserted values.
func (t *Table) SequenceColumns() []string {
	var out []string
	for i := range t.Columns {
		if t.Columns[i].Identity != NoIdentity {
			out = append(out, t.Columns[i].Name)
		}
	}
	return out
}

// Table looks a table up by name.
func (s *Schema) Table(name string) (*Table, bool) {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i], true
		}
	}
	return nil, false
}

// TableNames returns table names in declaration order.
func (s *Schema) TableNames() []string {
	names := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		names[i] = t.Name
	}
	return names
}

// Column looks a column up by name.
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// ColumnIndex returns the position of a column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return i
		}
	}
	return -1
}

// ColumnNames returns column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// PrimaryKey returns the primary key columns in declaration order.
func (t *Table) PrimaryKey() []string {
	var pk []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			pk = append(pk, c.Name)
		}
	}
	return pk
}

// UniqueConstraints returns every uniqueness constraint of the table: the
// primary key (as one, possibly composite, constraint), each single-column
// UNIQUE column and each multi-column unique key.
func (t *Table) UniqueConstraints() [][]string {
	var out [][]string
	seen := make(map[string]bool)
	add := func(cols []string) {
		key := strings.Join(cols, ",")
		if len(cols) == 0 || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, cols)
	}
	add(t.PrimaryKey())
	for _, c := range t.Columns {
		if c.Unique {
			add([]string{c.Name})
		}
	}
	for _, uk := range t.UniqueKeys {
		add(uk)
	}
	return out
}

// ForeignKeyFor returns the foreign key that covers the given column, if any.
func (t *Table) ForeignKeyFor(column string) (*ForeignKey, int, bool) {
	for i := range t.ForeignKeys {
		for j, c := range t.ForeignKeys[i].Columns {
			if c == column {
				return &t.ForeignKeys[i], j, true
			}
		}
	}
	return nil, -1, false
}

// IsHard reports whether a foreign key of this table is a hard edge: every
// child column is NOT NULL, so the parent must be generated first.
func (t *Table) IsHard(fk *ForeignKey) bool {
	for _, name := range fk.Columns {
		col, ok := t.Column(name)
		if !ok || col.Nullable {
			return false
		}
	}
	return true
}

// Bounded reports whether the column carries an explicit finite value set.
func (c *Column) Bounded() bool {
	return len(c.Values) > 0
}

// IsDate reports whether a temporal column stores a calendar date only.
func (c *Column) IsDate() bool {
	return c.Type == TypeTemporal && strings.EqualFold(strings.TrimSpace(c.SQLType), "date")
}

// IsTimeOfDay reports whether a temporal column stores a time of day only.
func (c *Column) IsTimeOfDay() bool {
	t := strings.ToLower(strings.TrimSpace(c.SQLType))
	return c.Type == TypeTemporal && (t == "time" || strings.HasPrefix(t, "time without") || strings.HasPrefix(t, "time with") || t == "timetz")
}
