package errors

import (
	"fmt"
	"strings"
)

// Process exit statuses, one per fatal kind.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitConfig        = 2
	ExitSchema        = 3
	ExitCycle         = 4
	ExitUnsatisfiable = 5
	ExitReferential   = 6
)

// SchemaError reports missing or unsupported metadata. It is raised before
// generation starts.
type SchemaError struct {
	Table  string
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	switch {
	case e.Table == "":
		return "schema error: " + e.Reason
	case e.Column == "":
		return fmt.Sprintf("schema error: table %s: %s", e.Table, e.Reason)
	default:
		return fmt.Sprintf("schema error: %s.%s: %s", e.Table, e.Column, e.Reason)
	}
}

// NewSchemaError builds a SchemaError with a stack attached.
func NewSchemaError(table, column, format string, args ...interface{}) error {
	return WithStack(&SchemaError{Table: table, Column: column, Reason: fmt.Sprintf(format, args...)})
}

// CycleError reports tables joined by a cycle of NOT NULL foreign keys.
// Tables is sorted so the report does not depend on declaration order.
type CycleError struct {
	Tables []string
}

func (e *CycleError) Error() string {
	return "cycle among NOT NULL foreign keys: " + strings.Join(e.Tables, ", ")
}

// ConstraintUnsatisfiable reports a unique or primary-key column whose value
// domain cannot supply enough distinct values.
type ConstraintUnsatisfiable struct {
	Table     string
	Column    string
	Row       int // -1 when detected before any row was generated
	Domain    int // distinct values available, -1 when unbounded
	Requested int
	Reason    string
}

func (e *ConstraintUnsatisfiable) Error() string {
	msg := fmt.Sprintf("constraint unsatisfiable: %s.%s", e.Table, e.Column)
	if e.Row >= 0 {
		msg += fmt.Sprintf(" at row %d", e.Row)
	}
	if e.Domain >= 0 {
		msg += fmt.Sprintf(": domain has %d distinct values, %d rows requested", e.Domain, e.Requested)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// ReferentialGapError reports a NOT NULL foreign key whose parent has no
// generated keys to draw from.
type ReferentialGapError struct {
	Table  string
	Column string
	Parent string
	Row    int
}

func (e *ReferentialGapError) Error() string {
	return fmt.Sprintf("referential gap: %s.%s at row %d references %s, which has no generated keys",
		e.Table, e.Column, e.Row, e.Parent)
}

// ConfigError reports invalid run configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

// ExitCode maps an error to the process exit status of its kind.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var (
		schemaErr *SchemaError
		cycleErr  *CycleError
		unsatErr  *ConstraintUnsatisfiable
		gapErr    *ReferentialGapError
		cfgErr    *ConfigError
	)
	switch {
	case As(err, &cycleErr):
		return ExitCycle
	case As(err, &unsatErr):
		return ExitUnsatisfiable
	case As(err, &gapErr):
		return ExitReferential
	case As(err, &schemaErr):
		return ExitSchema
	case As(err, &cfgErr):
		return ExitConfig
	default:
		return ExitFailure
	}
}

// Kind names the fatal kind of err for reports.
func Kind(err error) string {
	switch ExitCode(err) {
	case ExitOK:
		return ""
	case ExitSchema:
		return "SchemaError"
	case ExitCycle:
		return "CycleError"
	case ExitUnsatisfiable:
		return "ConstraintUnsatisfiable"
	case ExitReferential:
		return "ReferentialGapError"
	case ExitConfig:
		return "ConfigError"
	default:
		return "Error"
	}
}
