package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TypeCategory is the declared type family of a column.
type TypeCategory int

const (
	TypeUnknown TypeCategory = iota
	TypeText
	TypeInteger
	TypeNumeric
	TypeTemporal
	TypeBoolean
	TypeUUID
	TypeNetwork
	TypeEnum
	TypeJSON
	TypeArray
)

var categoryNames = map[TypeCategory]string{
	TypeUnknown:  "unknown",
	TypeText:     "text",
	TypeInteger:  "integer",
	TypeNumeric:  "numeric",
	TypeTemporal: "temporal",
	TypeBoolean:  "boolean",
	TypeUUID:     "uuid",
	TypeNetwork:  "network",
	TypeEnum:     "enum",
	TypeJSON:     "json",
	TypeArray:    "array",
}

func (c TypeCategory) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("TypeCategory(%d)", int(c))
}

// TypeSpec is the result of parsing a raw SQL type name.
type TypeSpec struct {
	Category  TypeCategory
	SQLType   string
	MaxLength int
	Precision int
	Scale     int
}

var typeRegex = regexp.MustCompile(`^([a-z_][a-z0-9_ ]*?)\s*(?:\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\))?(\s+with(?:out)? time zone)?$`)

var baseTypes = map[string]TypeCategory{
	"text": TypeText, "varchar": TypeText, "character varying": TypeText, "char": TypeText,
	"character": TypeText, "bpchar": TypeText, "citext": TypeText, "name": TypeText, "string": TypeText,

	"integer": TypeInteger, "int": TypeInteger, "int2": TypeInteger, "int4": TypeInteger,
	"int8": TypeInteger, "smallint": TypeInteger, "bigint": TypeInteger, "serial": TypeInteger,
	"serial4": TypeInteger, "serial8": TypeInteger, "bigserial": TypeInteger, "smallserial": TypeInteger,

	"numeric": TypeNumeric, "decimal": TypeNumeric, "real": TypeNumeric, "float4": TypeNumeric,
	"float8": TypeNumeric, "double precision": TypeNumeric, "float": TypeNumeric, "money": TypeNumeric,

	"temporal": TypeTemporal, "date": TypeTemporal, "time": TypeTemporal, "timetz": TypeTemporal,
	"timestamp": TypeTemporal, "timestamptz": TypeTemporal, "datetime": TypeTemporal,

	"boolean": TypeBoolean, "bool": TypeBoolean,
	"uuid":    TypeUUID,

	"network": TypeNetwork, "inet": TypeNetwork, "cidr": TypeNetwork, "macaddr": TypeNetwork, "macaddr8": TypeNetwork,

	"enum": TypeEnum,
	"json": TypeJSON, "jsonb": TypeJSON,
	"array": TypeArray,
}

// ParseType maps a raw SQL type name, or one of the category names, to a
// category plus its declared bounds. Types the generator cannot produce
// valid literals for are rejected.
func ParseType(raw string) (TypeSpec, error) {
	norm := strings.ToLower(strings.TrimSpace(raw))
	spec := TypeSpec{SQLType: strings.TrimSpace(raw)}
	if norm == "" {
		return spec, fmt.Errorf("empty type name")
	}

	if strings.HasSuffix(norm, "[]") || (strings.HasPrefix(norm, "_") && len(norm) > 1) {
		spec.Category = TypeArray
		return spec, nil
	}

	m := typeRegex.FindStringSubmatch(norm)
	if m == nil {
		return spec, fmt.Errorf("unsupported type %q", raw)
	}
	base := strings.TrimSpace(m[1])
	cat, ok := baseTypes[base]
	if !ok {
		return spec, fmt.Errorf("unsupported type %q", raw)
	}
	spec.Category = cat

	var first, second int
	if m[2] != "" {
		first, _ = strconv.Atoi(m[2])
	}
	if m[3] != "" {
		second, _ = strconv.Atoi(m[3])
	}

	switch cat {
	case TypeText:
		spec.MaxLength = first
		if (base == "char" || base == "character" || base == "bpchar") && first == 0 {
			spec.MaxLength = 1
		}
	case TypeNumeric:
		switch base {
		case "numeric", "decimal":
			spec.Precision = first
			spec.Scale = second
		case "money":
			spec.Precision = 19
			spec.Scale = 2
		default:
			spec.Scale = 2
		}
	}
	return spec, nil
}

// ParseCategory parses one of the category names used in snapshot files.
func ParseCategory(name string) (TypeCategory, bool) {
	norm := strings.ToLower(strings.TrimSpace(name))
	for cat, n := range categoryNames {
		if n == norm && cat != TypeUnknown {
			return cat, true
		}
	}
	return TypeUnknown, false
}
