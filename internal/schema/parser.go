package schema

import (
	"strings"

	"github.com/Rana718/synthdb/internal/errors"
)

// ddlParser reads a PostgreSQL DDL script (a pg_dump --schema-only file or
// hand-written migrations) into a Schema. Only what generation needs is
// kept: tables, column types and bounds, keys, foreign keys, enum labels and
// single-column CHECKs. Everything else in the script is skipped.
type ddlParser struct {
	schema  *Schema
	enums   map[string][]string
	pending []pendingConstraint
}

// pendingConstraint is a table constraint seen in ALTER TABLE or CREATE
// UNIQUE INDEX; it is applied once every table exists.
type pendingConstraint struct {
	table string
	def   string
}

// ParseDDL parses a DDL script into a validated Schema.
func ParseDDL(sql string) (*Schema, error) {
	p := &ddlParser{
		schema: &Schema{Name: "public"},
		enums:  make(map[string][]string),
	}

	for _, stmt := range p.splitStatements(p.cleanSQL(sql)) {
		switch {
		case enumRegex.MatchString(stmt):
			p.parseCreateType(stmt)
		case tableRegex.MatchString(stmt):
			if err := p.parseCreateTable(stmt); err != nil {
				return nil, err
			}
		case alterRegex.MatchString(stmt):
			m := alterRegex.FindStringSubmatch(stmt)
			p.pending = append(p.pending, pendingConstraint{table: ident(m[1]), def: m[2]})
		case indexRegex.MatchString(stmt):
			m := indexRegex.FindStringSubmatch(stmt)
			p.pending = append(p.pending, pendingConstraint{table: ident(m[1]), def: "UNIQUE (" + indexColumns(m[2]) + ")"})
		}
	}

	for _, pc := range p.pending {
		t, ok := p.schema.Table(pc.table)
		if !ok {
			continue
		}
		if m := addColumnRegex.FindStringSubmatch(pc.def); m != nil {
			col, skip, err := p.parseColumnDefinition(t, m[1])
			if err != nil {
				return nil, err
			}
			if !skip {
				t.Columns = append(t.Columns, col)
			}
			continue
		}
		if err := p.applyTableConstraint(t, pc.def); err != nil {
			return nil, err
		}
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	if err := Validate(p.schema); err != nil {
		return nil, err
	}
	return p.schema, nil
}

func (p *ddlParser) cleanSQL(sql string) string {
	sql = commentRegex.ReplaceAllString(sql, "")
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(sql, " "))
}

// splitStatements splits on semicolons outside string literals and
// dollar-quoted bodies.
func (p *ddlParser) splitStatements(sql string) []string {
	var result []string
	var current strings.Builder
	inString, inDollar := false, false

	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case c == '\'' && !inDollar:
			inString = !inString
		case c == '$' && !inString && i+1 < len(sql) && sql[i+1] == '$':
			inDollar = !inDollar
			current.WriteByte(c)
			i++
		case c == ';' && !inString && !inDollar:
			if stmt := strings.TrimSpace(current.String()); stmt != "" {
				result = append(result, stmt)
			}
			current.Reset()
			continue
		}
		current.WriteByte(c)
	}
	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		result = append(result, stmt)
	}
	return result
}

func (p *ddlParser) parseCreateType(stmt string) {
	m := enumRegex.FindStringSubmatch(stmt)
	var values []string
	for _, v := range enumValueRegex.FindAllStringSubmatch(m[2], -1) {
		values = append(values, strings.ReplaceAll(v[1], "''", "'"))
	}
	p.enums[ident(m[1])] = values
}

func (p *ddlParser) parseCreateTable(stmt string) error {
	m := tableRegex.FindStringSubmatch(stmt)
	t := Table{Name: ident(m[1])}

	start := len(m[0]) - 1
	body, _, ok := balanced(stmt, start)
	if !ok {
		return errors.NewSchemaError(t.Name, "", "unbalanced parentheses in CREATE TABLE")
	}

	var constraints []string
	for _, def := range splitColumnDefinitions(body) {
		if def = strings.TrimSpace(def); def == "" {
			continue
		}
		if isTableConstraint(def) {
			constraints = append(constraints, def)
			continue
		}
		col, skip, err := p.parseColumnDefinition(&t, def)
		if err != nil {
			return err
		}
		if !skip {
			t.Columns = append(t.Columns, col)
		}
	}
	for _, def := range constraints {
		if err := p.applyTableConstraint(&t, def); err != nil {
			return err
		}
	}
	p.schema.Tables = append(p.schema.Tables, t)
	return nil
}

func splitColumnDefinitions(defs string) []string {
	var result []string
	var current strings.Builder
	parenLevel := 0
	inString := false

	for _, char := range defs {
		switch {
		case char == '\'':
			inString = !inString
		case inString:
		case char == '(':
			parenLevel++
		case char == ')':
			parenLevel--
		case char == ',' && parenLevel == 0:
			result = append(result, current.String())
			current.Reset()
			continue
		}
		current.WriteRune(char)
	}

	if current.Len() > 0 {
		result = append(result, current.String())
	}
	return result
}

func isTableConstraint(def string) bool {
	def = strings.ToUpper(strings.TrimSpace(def))
	for _, prefix := range []string{"PRIMARY KEY", "FOREIGN KEY", "UNIQUE", "CHECK", "CONSTRAINT", "EXCLUDE", "LIKE "} {
		if strings.HasPrefix(def, prefix) {
			return true
		}
	}
	return false
}

// columnKeywords end the type part of a column definition.
var columnKeywords = map[string]bool{
	"NOT": true, "NULL": true, "PRIMARY": true, "UNIQUE": true, "DEFAULT": true,
	"REFERENCES": true, "CHECK": true, "CONSTRAINT": true, "GENERATED": true, "COLLATE": true,
}

// parseColumnDefinition reads one column. skip reports a computed column,
// which never receives generated values.
func (p *ddlParser) parseColumnDefinition(t *Table, colDef string) (col Column, skip bool, err error) {
	name, rest := splitIdent(colDef)
	if rest == "" {
		return col, false, errors.NewSchemaError(t.Name, name, "column has no type")
	}
	col = Column{Name: name, Nullable: true}
	if generatedRegex.MatchString(rest) {
		return col, true, nil
	}

	typeName, constraints := splitType(rest)
	col.SQLType = typeName
	if labels, ok := p.enums[ident(typeName)]; ok {
		col.Type = TypeEnum
		col.Values = append([]string(nil), labels...)
	} else {
		spec, err := ParseType(typeName)
		if err != nil {
			return col, false, errors.WithHint(
				errors.NewSchemaError(t.Name, name, "%v", err),
				"remove the table from the script or exclude it")
		}
		col.Type = spec.Category
		col.MaxLength = spec.MaxLength
		col.Precision = spec.Precision
		col.Scale = spec.Scale
		if strings.Contains(strings.ToLower(typeName), "serial") {
			col.HasDefault = true
			col.Identity = Serial
			col.Nullable = false
		}
	}

	var checks []string
	for {
		loc := checkStartRegex.FindStringIndex(constraints)
		if loc == nil {
			break
		}
		body, end, ok := balanced(constraints, loc[1]-1)
		if !ok {
			return col, false, errors.NewSchemaError(t.Name, name, "unbalanced CHECK")
		}
		checks = append(checks, body)
		constraints = constraints[:loc[0]] + constraints[end:]
	}

	if notNullRegex.MatchString(constraints) {
		col.Nullable = false
	}
	if primaryRegex.MatchString(constraints) {
		col.PrimaryKey = true
		col.Nullable = false
	} else if uniqueRegex.MatchString(constraints) {
		col.Unique = true
	}
	if m := identityRegex.FindStringSubmatch(constraints); m != nil {
		col.HasDefault = true
		col.Nullable = false
		col.Identity = IdentityByDefault
		if strings.EqualFold(m[1], "ALWAYS") {
			col.Identity = IdentityAlways
		}
	} else if defaultRegex.MatchString(constraints) {
		col.HasDefault = true
		if strings.Contains(strings.ToLower(constraints), "nextval(") {
			col.Identity = Serial
		}
	}
	if m := referencesRegex.FindStringSubmatch(constraints); m != nil {
		t.ForeignKeys = append(t.ForeignKeys, ForeignKey{
			Columns:    []string{name},
			RefTable:   ident(m[1]),
			RefColumns: identList(m[2]),
		})
	}
	for _, c := range checks {
		addCheck(&col, c)
	}
	return col, false, nil
}

func (p *ddlParser) applyTableConstraint(t *Table, def string) error {
	def = strings.TrimSpace(def)
	name := ""
	if m := constraintName.FindStringSubmatch(def); m != nil {
		name, def = ident(m[1]), strings.TrimSpace(m[2])
	}

	if m := keyListRegex.FindStringSubmatch(def); m != nil {
		columns := identList(m[2])
		primary := strings.HasPrefix(strings.ToUpper(m[1]), "PRIMARY")
		if primary {
			for _, c := range columns {
				if col, ok := t.Column(c); ok {
					col.PrimaryKey = true
					col.Nullable = false
				}
			}
			return nil
		}
		if len(columns) == 1 {
			if col, ok := t.Column(columns[0]); ok {
				col.Unique = true
			}
			return nil
		}
		t.UniqueKeys = append(t.UniqueKeys, columns)
		return nil
	}

	if m := foreignKeyRegex.FindStringSubmatch(def); m != nil {
		t.ForeignKeys = append(t.ForeignKeys, ForeignKey{
			Name:       name,
			Columns:    identList(m[1]),
			RefTable:   ident(m[2]),
			RefColumns: identList(m[3]),
		})
		return nil
	}

	if loc := checkStartRegex.FindStringIndex(def); loc != nil && loc[0] == 0 {
		body, _, ok := balanced(def, loc[1]-1)
		if !ok {
			return errors.NewSchemaError(t.Name, "", "unbalanced CHECK %s", name)
		}
		var target *Column
		for i := range t.Columns {
			if mentions(body, t.Columns[i].Name) {
				if target != nil {
					return errors.WithHint(
						errors.NewSchemaError(t.Name, "", "CHECK %s spans several columns", name),
						"exclude the table with --exclude")
				}
				target = &t.Columns[i]
			}
		}
		if target != nil {
			addCheck(target, body)
		}
	}
	return nil
}

// finish resolves references without a column list to the parent's primary
// key and folds every CHECK into its column's bounds.
func (p *ddlParser) finish() error {
	for ti := range p.schema.Tables {
		t := &p.schema.Tables[ti]
		for fi := range t.ForeignKeys {
			fk := &t.ForeignKeys[fi]
			if len(fk.RefColumns) > 0 {
				continue
			}
			if parent, ok := p.schema.Table(fk.RefTable); ok {
				fk.RefColumns = parent.PrimaryKey()
			}
		}
		for ci := range t.Columns {
			col := &t.Columns[ci]
			if err := ApplyCheck(col); err != nil {
				return errors.WithHint(
					errors.NewSchemaError(t.Name, col.Name, "%v", err),
					"exclude the table or replace the CHECK with an enum")
			}
		}
	}
	return nil
}

func addCheck(col *Column, expr string) {
	if col.Check == "" {
		col.Check = expr
		return
	}
	col.Check = "(" + col.Check + ") AND (" + expr + ")"
}

// balanced returns the text inside the parenthesis opening at s[open] and
// the index just past its closing parenthesis.
func balanced(s string, open int) (string, int, bool) {
	depth := 0
	inString := false
	for i := open; i < len(s); i++ {
		switch {
		case s[i] == '\'':
			inString = !inString
		case inString:
		case s[i] == '(':
			depth++
		case s[i] == ')':
			depth--
			if depth == 0 {
				return s[open+1 : i], i + 1, true
			}
		}
	}
	return "", 0, false
}

// splitType separates the type of a column definition from its
// constraints: the type runs until the first constraint keyword outside
// parentheses.
func splitType(rest string) (string, string) {
	depth := 0
	wordStart := 0
	for i := 0; i <= len(rest); i++ {
		if i < len(rest) {
			switch rest[i] {
			case '(':
				depth++
				continue
			case ')':
				depth--
				continue
			case ' ':
			default:
				continue
			}
		}
		if depth == 0 && i > wordStart {
			word := strings.ToUpper(rest[wordStart:i])
			if columnKeywords[word] {
				return strings.TrimSpace(rest[:wordStart]), rest[wordStart:]
			}
		}
		wordStart = i + 1
	}
	return strings.TrimSpace(rest), ""
}

func splitIdent(def string) (string, string) {
	def = strings.TrimSpace(def)
	if strings.HasPrefix(def, `"`) {
		if end := strings.Index(def[1:], `"`); end >= 0 {
			return def[1 : end+1], strings.TrimSpace(def[end+2:])
		}
	}
	i := strings.IndexByte(def, ' ')
	if i < 0 {
		return strings.ToLower(def), ""
	}
	return strings.ToLower(def[:i]), strings.TrimSpace(def[i+1:])
}

// ident normalises a possibly schema-qualified identifier: the schema is
// dropped, quoted names keep their case and unquoted ones fold to lower case.
func ident(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasSuffix(raw, `"`) {
		if start := strings.LastIndex(raw[:len(raw)-1], `"`); start >= 0 {
			return raw[start+1 : len(raw)-1]
		}
	}
	if i := strings.LastIndexByte(raw, '.'); i >= 0 {
		raw = raw[i+1:]
	}
	return strings.ToLower(raw)
}

func identList(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, ident(part))
		}
	}
	return out
}

// indexColumns reduces an index column list to plain column names. An
// expression such as lower(email) counts as its column, which makes the
// generated data stricter than the index requires.
func indexColumns(list string) string {
	parts := strings.Split(list, ",")
	for i, part := range parts {
		part = indexOrderRegex.ReplaceAllString(strings.TrimSpace(part), "")
		if open := strings.LastIndexByte(part, '('); open >= 0 {
			part = strings.TrimRight(part[open+1:], ") ")
		}
		parts[i] = part
	}
	return strings.Join(parts, ", ")
}

// mentions reports whether expr references the column as an identifier.
func mentions(expr, column string) bool {
	expr = enumValueRegex.ReplaceAllString(expr, "''")
	for _, m := range identRegex.FindAllStringSubmatch(expr, -1) {
		name := m[1]
		if name == "" {
			name = strings.ToLower(m[2])
		}
		if name == column {
			return true
		}
	}
	return false
}
