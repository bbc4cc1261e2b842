package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"strings"

	"github.com/Rana718/synthdb/internal/errors"
	"github.com/Rana718/synthdb/internal/logger"
	"github.com/Rana718/synthdb/internal/schema"
)

// catalogColumn is one row of information_schema.columns.
type catalogColumn struct {
	Table     string
	Name      string
	DataType  string
	UDTName   string
	Nullable  bool
	Default   sql.NullString
	Identity  string // information_schema identity_generation, empty if none
	MaxLength sql.NullInt64
	Precision sql.NullInt64
	Scale     sql.NullInt64
}

// catalogConstraint is one PRIMARY KEY, UNIQUE, FOREIGN KEY or CHECK
// constraint from pg_constraint.
type catalogConstraint struct {
	Name       string
	Kind       string // p, u, f or c
	Table      string
	Columns    []string
	RefTable   string
	RefColumns []string
	Definition string
}

// Introspect reads the tables of the adapter's schema into the engine's
// model: columns with their declared bounds, keys, foreign keys, enum
// labels and single-column CHECK constraints. Tables matching an exclude
// pattern are dropped, so their unsupported columns never fail the run.
func (p *Adapter) Introspect(ctx context.Context, exclude []string) (*schema.Schema, error) {
	tableNames, err := p.tableNames(ctx)
	if err != nil {
		return nil, err
	}
	enums, err := p.enums(ctx)
	if err != nil {
		return nil, err
	}
	columns, err := p.columns(ctx)
	if err != nil {
		return nil, err
	}
	constraints, err := p.constraints(ctx)
	if err != nil {
		return nil, err
	}

	s, err := buildSchema(p.schema, tableNames, columns, constraints, enums, exclude)
	if err != nil {
		return nil, err
	}
	logger.Logger.Debugw("schema introspected", "schema", p.schema, "tables", len(s.Tables))
	return s, nil
}

func (p *Adapter) tableNames(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, p.schema)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tables")
	}
	defer rows.Close()

	tables := make([]string, 0, 32)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "failed to scan table name")
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (p *Adapter) enums(ctx context.Context) (map[string][]string, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT t.typname, e.enumlabel
		FROM pg_type t
		JOIN pg_enum e ON t.oid = e.enumtypid
		JOIN pg_catalog.pg_namespace n ON n.oid = t.typnamespace
		WHERE n.nspname = $1
		ORDER BY t.typname, e.enumsortorder
	`, p.schema)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read enum types")
	}
	defer rows.Close()

	enums := make(map[string][]string)
	for rows.Next() {
		var name, label string
		if err := rows.Scan(&name, &label); err != nil {
			return nil, errors.Wrap(err, "failed to scan enum label")
		}
		enums[name] = append(enums[name], label)
	}
	return enums, rows.Err()
}

func (p *Adapter) columns(ctx context.Context) ([]catalogColumn, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT
			c.table_name,
			c.column_name,
			c.data_type,
			c.udt_name,
			c.is_nullable,
			c.column_default,
			COALESCE(c.identity_generation, ''),
			c.character_maximum_length,
			c.numeric_precision,
			c.numeric_scale
		FROM information_schema.columns c
		JOIN information_schema.tables t
			ON t.table_schema = c.table_schema AND t.table_name = c.table_name
		WHERE c.table_schema = $1 AND t.table_type = 'BASE TABLE'
		  AND c.is_generated = 'NEVER'
		ORDER BY c.table_name, c.ordinal_position
	`, p.schema)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read columns")
	}
	defer rows.Close()

	var out []catalogColumn
	for rows.Next() {
		var c catalogColumn
		var nullable string
		if err := rows.Scan(&c.Table, &c.Name, &c.DataType, &c.UDTName, &nullable,
			&c.Default, &c.Identity, &c.MaxLength, &c.Precision, &c.Scale); err != nil {
			return nil, errors.Wrap(err, "failed to scan column")
		}
		c.Nullable = nullable == "YES"
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *Adapter) constraints(ctx context.Context) ([]catalogConstraint, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT
			con.conname,
			con.contype::text,
			src.relname,
			ARRAY(
				SELECT a.attname::text
				FROM unnest(con.conkey) WITH ORDINALITY AS k(num, ord)
				JOIN pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.num
				ORDER BY k.ord
			),
			COALESCE(tgt.relname::text, ''),
			ARRAY(
				SELECT a.attname::text
				FROM unnest(con.confkey) WITH ORDINALITY AS k(num, ord)
				JOIN pg_attribute a ON a.attrelid = con.confrelid AND a.attnum = k.num
				ORDER BY k.ord
			),
			pg_get_constraintdef(con.oid)
		FROM pg_constraint con
		JOIN pg_class src ON src.oid = con.conrelid
		JOIN pg_namespace ns ON ns.oid = src.relnamespace
		LEFT JOIN pg_class tgt ON tgt.oid = con.confrelid
		WHERE ns.nspname = $1 AND con.contype IN ('p', 'u', 'f', 'c')
		ORDER BY src.relname, con.conname
	`, p.schema)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read constraints")
	}
	defer rows.Close()

	var out []catalogConstraint
	for rows.Next() {
		var c catalogConstraint
		if err := rows.Scan(&c.Name, &c.Kind, &c.Table, &c.Columns, &c.RefTable, &c.RefColumns, &c.Definition); err != nil {
			return nil, errors.Wrap(err, "failed to scan constraint")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// buildSchema assembles the catalog rows into a schema, drops the excluded
// tables and validates the rest. Excluded tables keep only what their
// references need: their key columns and nothing that could fail.
func buildSchema(name string, tableNames []string, columns []catalogColumn, constraints []catalogConstraint, enums map[string][]string, exclude []string) (*schema.Schema, error) {
	s := &schema.Schema{Name: name}
	index := make(map[string]int, len(tableNames))
	for _, t := range tableNames {
		index[t] = len(s.Tables)
		s.Tables = append(s.Tables, schema.Table{Name: t})
	}
	_, dropped, err := schema.Exclude(s, exclude)
	if err != nil {
		return nil, err
	}
	skip := make(map[string]bool, len(dropped))
	for _, t := range dropped {
		skip[t] = true
	}

	for _, c := range columns {
		i, ok := index[c.Table]
		if !ok {
			continue
		}
		col, err := buildColumn(c, enums)
		if err != nil {
			if !skip[c.Table] {
				return nil, err
			}
			col = schema.Column{Name: c.Name, Type: schema.TypeText, SQLType: c.UDTName, Nullable: c.Nullable}
		}
		s.Tables[i].Columns = append(s.Tables[i].Columns, col)
	}

	for _, con := range constraints {
		i, ok := index[con.Table]
		if !ok || (skip[con.Table] && con.Kind == "c") {
			continue
		}
		if err := applyConstraint(&s.Tables[i], con); err != nil {
			return nil, err
		}
	}

	kept, _, err := schema.Exclude(s, exclude)
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(kept); err != nil {
		return nil, err
	}
	return kept, nil
}

func buildColumn(c catalogColumn, enums map[string][]string) (schema.Column, error) {
	col := schema.Column{
		Name:       c.Name,
		Nullable:   c.Nullable,
		HasDefault: c.Default.Valid || c.Identity != "",
	}
	if id, ok := schema.ParseIdentity(c.Identity); ok && c.Identity != "" {
		col.Identity = id
	} else if c.Default.Valid && strings.HasPrefix(c.Default.String, "nextval(") {
		col.Identity = schema.Serial
	}

	if labels, ok := enums[c.UDTName]; ok && c.DataType == "USER-DEFINED" {
		col.Type = schema.TypeEnum
		col.SQLType = c.UDTName
		col.Values = append([]string(nil), labels...)
		return col, nil
	}

	raw := c.UDTName
	if c.DataType != "ARRAY" && c.DataType != "USER-DEFINED" {
		raw = c.DataType
	}
	spec, err := schema.ParseType(raw)
	if err != nil {
		return col, errors.WithHint(
			errors.NewSchemaError(c.Table, c.Name, "%v", err),
			"exclude the table with --exclude")
	}
	col.Type = spec.Category
	col.SQLType = spec.SQLType
	col.MaxLength = spec.MaxLength
	col.Precision = spec.Precision
	col.Scale = spec.Scale

	if c.MaxLength.Valid {
		col.MaxLength = int(c.MaxLength.Int64)
	}
	if col.Type == schema.TypeNumeric && (c.UDTName == "numeric" || c.UDTName == "decimal") {
		if c.Precision.Valid {
			col.Precision = int(c.Precision.Int64)
		}
		if c.Scale.Valid {
			col.Scale = int(c.Scale.Int64)
		}
	}
	return col, nil
}

var checkWrapper = regexp.MustCompile(`(?is)^\s*CHECK\s*\((.*)\)\s*(?:NOT VALID)?\s*$`)

func applyConstraint(t *schema.Table, con catalogConstraint) error {
	switch con.Kind {
	case "p":
		for _, name := range con.Columns {
			if col := column(t, name); col != nil {
				col.PrimaryKey = true
				col.Nullable = false
			}
		}
	case "u":
		if len(con.Columns) == 1 {
			if col := column(t, con.Columns[0]); col != nil {
				col.Unique = true
			}
			return nil
		}
		t.UniqueKeys = append(t.UniqueKeys, append([]string(nil), con.Columns...))
	case "f":
		t.ForeignKeys = append(t.ForeignKeys, schema.ForeignKey{
			Name:       con.Name,
			Columns:    append([]string(nil), con.Columns...),
			RefTable:   con.RefTable,
			RefColumns: append([]string(nil), con.RefColumns...),
		})
	case "c":
		if len(con.Columns) != 1 {
			return errors.WithHint(
				errors.NewSchemaError(t.Name, "", "CHECK %s spans %d columns", con.Name, len(con.Columns)),
				"exclude the table with --exclude")
		}
		col := column(t, con.Columns[0])
		if col == nil {
			return nil
		}
		expr := con.Definition
		if m := checkWrapper.FindStringSubmatch(expr); m != nil {
			expr = m[1]
		}
		if col.Check != "" {
			col.Check = "(" + col.Check + ") AND (" + expr + ")"
		} else {
			col.Check = expr
		}
		if err := schema.ApplyCheck(col); err != nil {
			return errors.WithHint(
				errors.NewSchemaError(t.Name, col.Name, "%v", err),
				"exclude the table with --exclude")
		}
	}
	return nil
}

func column(t *schema.Table, name string) *schema.Column {
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, name) {
			return &t.Columns[i]
		}
	}
	return nil
}
