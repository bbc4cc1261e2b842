package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumeric(t *testing.T) {
	tests := []struct {
		in     float64
		scale  int
		str    string
		digits int
	}{
		{12.346, 2, "12.35", 2},
		{-0.5, 2, "-0.50", 0},
		{0.004, 2, "0.00", 0},
		{999.999, 2, "1000.00", 4},
		{42, 0, "42", 2},
		{0.07, 3, "0.070", 0},
	}

	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			n := NewNumeric(tt.in, tt.scale)
			assert.Equal(t, tt.str, n.String())
			assert.Equal(t, tt.digits, n.IntegerDigits())
		})
	}
}

func TestFormat(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	day := time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC)

	assert.Equal(t, "", Format(nil))
	assert.Equal(t, "7", Format(int64(7)))
	assert.Equal(t, "true", Format(true))
	assert.Equal(t, "1.5", Format(1.5))
	assert.Equal(t, "2024-03-09", Format(Date{day}))
	assert.Equal(t, "14:05:06", Format(TimeOfDay{day}))
	assert.Equal(t, "2024-03-09 14:05:06Z", Format(day))
	assert.Equal(t, id.String(), Format(id))
	assert.Equal(t, `{"a":1}`, Format(JSON(`{"a":1}`)))
	assert.Equal(t, `{1,"x \"y\""}`, Format(Array{int64(1), `x "y"`}))
}

func TestJSONEncoding(t *testing.T) {
	row := Row{
		"price": NewNumeric(9.5, 2),
		"meta":  JSON(`{"k":true}`),
		"born":  Date{time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)},
		"gone":  nil,
	}
	out, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"price": 9.50, "meta": {"k": true}, "born": "1990-01-02", "gone": null}`, string(out))
}

func TestRowClone(t *testing.T) {
	r := Row{"a": int64(1)}
	c := r.Clone()
	c["a"] = int64(2)
	assert.Equal(t, int64(1), r["a"])
}
