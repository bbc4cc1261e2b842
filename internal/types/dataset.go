// Package types holds the data a generation run emits: rows, finished table
// batches and the patch events of the deferred foreign-key pass.
package types

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Row maps column names to values. A nil value is an explicit NULL.
//
// Values are one of: nil, string, int64, bool, float64, Numeric, Date,
// TimeOfDay, time.Time, JSON, Array, or uuid.UUID.
type Row map[string]any

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Batch is the finished output of one table, in generation order.
type Batch struct {
	Table   string
	Columns []string
	Rows    []Row
	// OverrideIdentity marks tables with a GENERATED ALWAYS identity: their
	// explicit keys must be inserted with OVERRIDING SYSTEM VALUE.
	OverrideIdentity bool
	// Sequences lists the sequence-backed columns to move past the loaded
	// values once the data is in.
	Sequences []string
}

// Patch assigns deferred foreign-key values to one already emitted row.
// Key identifies the row by its primary key (or its full original values
// when the table has none); Index is its position in the table's batch.
type Patch struct {
	Table  string
	Index  int
	Key    Row
	Values Row
}

// Numeric is a fixed-point value: Unscaled * 10^-Scale.
type Numeric struct {
	Unscaled int64
	Scale    int
}

// NewNumeric rounds f half away from zero to the given scale.
func NewNumeric(f float64, scale int) Numeric {
	return Numeric{Unscaled: int64(math.Round(f * math.Pow10(scale))), Scale: scale}
}

// Float64 returns the value as a float.
func (n Numeric) Float64() float64 {
	return float64(n.Unscaled) / math.Pow10(n.Scale)
}

// String renders the value with exactly Scale fractional digits.
func (n Numeric) String() string {
	if n.Scale <= 0 {
		return strconv.FormatInt(n.Unscaled, 10)
	}
	neg := n.Unscaled < 0
	u := n.Unscaled
	if neg {
		u = -u
	}
	digits := strconv.FormatInt(u, 10)
	if len(digits) <= n.Scale {
		digits = strings.Repeat("0", n.Scale-len(digits)+1) + digits
	}
	cut := len(digits) - n.Scale
	s := digits[:cut] + "." + digits[cut:]
	if neg {
		s = "-" + s
	}
	return s
}

// IntegerDigits counts the digits left of the decimal point, ignoring sign.
func (n Numeric) IntegerDigits() int {
	u := n.Unscaled
	if u < 0 {
		u = -u
	}
	whole := u / int64(math.Pow10(n.Scale))
	if whole == 0 {
		return 0
	}
	return len(strconv.FormatInt(whole, 10))
}

func (n Numeric) MarshalJSON() ([]byte, error) {
	return []byte(n.String()), nil
}

// Date is a calendar date without time of day.
type Date struct{ time.Time }

func (d Date) String() string { return d.Format("2006-01-02") }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct{ time.Time }

func (t TimeOfDay) String() string { return t.Format("15:04:05") }

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// JSON is a serialized JSON document.
type JSON json.RawMessage

func (j JSON) String() string { return string(j) }

func (j JSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

// Array is a one-dimensional array value.
type Array []any

// Literal renders the array in the textual array form ({a,b}).
func (a Array) Literal() string {
	parts := make([]string, len(a))
	for i, v := range a {
		s := Format(v)
		if _, ok := v.(string); ok {
			s = `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
		}
		parts[i] = s
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Format renders a value as plain text, the way CSV and uniqueness keys see
// it. NULL renders as the empty string.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.UTC().Format("2006-01-02 15:04:05Z07:00")
	case Array:
		return x.Literal()
	case interface{ String() string }:
		return x.String()
	default:
		b, _ := json.Marshal(x)
		return string(b)
	}
}
