package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
		kind string
	}{
		{"nil", nil, ExitOK, ""},
		{"plain", New("boom"), ExitFailure, "Error"},
		{"schema", NewSchemaError("users", "id", "unsupported type %q", "box"), ExitSchema, "SchemaError"},
		{"cycle wrapped", Wrap(&CycleError{Tables: []string{"a", "b"}}, "ordering"), ExitCycle, "CycleError"},
		{"unsatisfiable", &ConstraintUnsatisfiable{Table: "t", Column: "c", Row: -1, Domain: 3, Requested: 10}, ExitUnsatisfiable, "ConstraintUnsatisfiable"},
		{"gap", Wrapf(&ReferentialGapError{Table: "e", Column: "c_id", Parent: "c"}, "table %s", "e"), ExitReferential, "ReferentialGapError"},
		{"config", &ConfigError{Field: "null_rate", Reason: "out of range"}, ExitConfig, "ConfigError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
			assert.Equal(t, tt.kind, Kind(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "cycle among NOT NULL foreign keys: a, b", (&CycleError{Tables: []string{"a", "b"}}).Error())
	assert.Equal(t,
		"constraint unsatisfiable: t.status: domain has 3 distinct values, 10 rows requested",
		(&ConstraintUnsatisfiable{Table: "t", Column: "status", Row: -1, Domain: 3, Requested: 10}).Error())
	assert.Equal(t,
		"referential gap: employee.company_id at row 0 references company, which has no generated keys",
		(&ReferentialGapError{Table: "employee", Column: "company_id", Parent: "company"}).Error())
	assert.Equal(t, "schema error: users.id: bad", (&SchemaError{Table: "users", Column: "id", Reason: "bad"}).Error())
}
