package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		raw       string
		category  TypeCategory
		maxLength int
		precision int
		scale     int
	}{
		{"text", TypeText, 0, 0, 0},
		{"character varying(40)", TypeText, 40, 0, 0},
		{"VARCHAR(255)", TypeText, 255, 0, 0},
		{"char", TypeText, 1, 0, 0},
		{"character(3)", TypeText, 3, 0, 0},
		{"integer", TypeInteger, 0, 0, 0},
		{"bigserial", TypeInteger, 0, 0, 0},
		{"numeric(10,2)", TypeNumeric, 0, 10, 2},
		{"numeric(5)", TypeNumeric, 0, 5, 0},
		{"double precision", TypeNumeric, 0, 0, 2},
		{"money", TypeNumeric, 0, 19, 2},
		{"timestamp with time zone", TypeTemporal, 0, 0, 0},
		{"timestamp(3) without time zone", TypeTemporal, 0, 0, 0},
		{"date", TypeTemporal, 0, 0, 0},
		{"bool", TypeBoolean, 0, 0, 0},
		{"uuid", TypeUUID, 0, 0, 0},
		{"inet", TypeNetwork, 0, 0, 0},
		{"macaddr", TypeNetwork, 0, 0, 0},
		{"jsonb", TypeJSON, 0, 0, 0},
		{"int4[]", TypeArray, 0, 0, 0},
		{"_text", TypeArray, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			spec, err := ParseType(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.category, spec.Category)
			assert.Equal(t, tt.maxLength, spec.MaxLength)
			assert.Equal(t, tt.precision, spec.Precision)
			assert.Equal(t, tt.scale, spec.Scale)
		})
	}
}

func TestParseTypeRejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "geometry", "tsvector", "point(1,2,3)"} {
		_, err := ParseType(raw)
		assert.Error(t, err, raw)
	}
}

func TestParseCategory(t *testing.T) {
	cat, ok := ParseCategory("Numeric")
	assert.True(t, ok)
	assert.Equal(t, TypeNumeric, cat)

	_, ok = ParseCategory("unknown")
	assert.False(t, ok)
	_, ok = ParseCategory("varchar")
	assert.False(t, ok)
}
