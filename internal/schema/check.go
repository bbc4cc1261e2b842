package schema

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// CheckInfo is what the engine understands of a CHECK expression.
type CheckInfo struct {
	Values       []string
	Min          *float64
	Max          *float64
	MinExclusive bool
	MaxExclusive bool
	MaxLength    int
}

var (
	castRegex     = regexp.MustCompile(`(?i)::\s*[a-z_]+(?:\s+(?:varying|precision|without time zone|with time zone))?(?:\s*\(\s*\d+(?:\s*,\s*\d+)?\s*\))?(?:\[\])?`)
	parenIdent    = regexp.MustCompile(`(^|[^A-Za-z0-9_])\(\s*([A-Za-z_][A-Za-z0-9_]*|'[^']*'|-?\d+(?:\.\d+)?)\s*\)`)
	checkPrefix   = regexp.MustCompile(`(?i)^\s*CHECK\s*`)
	literalRegex  = regexp.MustCompile(`'((?:[^']|'')*)'|(-?\d+(?:\.\d+)?)`)
	remainderOnly = regexp.MustCompile(`(?i)^[\s()]*(?:(?:AND|OR)[\s()]*)*$`)
)

type span struct{ start, end int }

// ParseCheck interprets a CHECK expression over one column. Supported forms,
// joined by AND: IN lists, = ANY (ARRAY[...]), equality disjunctions,
// comparisons against numeric literals, BETWEEN, length(col) bounds and
// IS NOT NULL / <> '' guards. Anything else is an error so no value that could
// violate the constraint is ever produced.
func ParseCheck(column, expr string) (CheckInfo, error) {
	var info CheckInfo
	e := checkPrefix.ReplaceAllString(expr, "")
	e = castRegex.ReplaceAllString(e, "")
	e = strings.ReplaceAll(e, `"`, "")
	for {
		next := parenIdent.ReplaceAllString(e, "${1}${2}")
		if next == e {
			break
		}
		e = next
	}

	col := regexp.QuoteMeta(column)
	num := `(-?\d+(?:\.\d+)?)`
	var matched []span
	mark := func(loc []int) { matched = append(matched, span{loc[0], loc[1]}) }

	inList := regexp.MustCompile(`(?i)\b` + col + `\s+IN\s*\(([^)]*)\)`)
	for _, loc := range inList.FindAllStringSubmatchIndex(e, -1) {
		info.Values = append(info.Values, parseLiterals(e[loc[2]:loc[3]])...)
		mark(loc)
	}
	anyArray := regexp.MustCompile(`(?i)\b` + col + `\s*=\s*ANY\s*\(\s*\(?\s*ARRAY\s*\[([^\]]*)\]\s*\)?\s*\)`)
	for _, loc := range anyArray.FindAllStringSubmatchIndex(e, -1) {
		info.Values = append(info.Values, parseLiterals(e[loc[2]:loc[3]])...)
		mark(loc)
	}
	eqLiteral := regexp.MustCompile(`(?i)\b` + col + `\s*=\s*'((?:[^']|'')*)'`)
	for _, loc := range eqLiteral.FindAllStringSubmatchIndex(e, -1) {
		if overlaps(matched, loc) {
			continue
		}
		info.Values = append(info.Values, strings.ReplaceAll(e[loc[2]:loc[3]], "''", "'"))
		mark(loc)
	}

	between := regexp.MustCompile(`(?i)\b` + col + `\s+BETWEEN\s+` + num + `\s+AND\s+` + num)
	for _, loc := range between.FindAllStringSubmatchIndex(e, -1) {
		lo, _ := strconv.ParseFloat(e[loc[2]:loc[3]], 64)
		hi, _ := strconv.ParseFloat(e[loc[4]:loc[5]], 64)
		info.tightenMin(lo, false)
		info.tightenMax(hi, false)
		mark(loc)
	}

	length := regexp.MustCompile(`(?i)\b(?:char_length|character_length|length)\s*\(\s*` + col + `\s*\)\s*(<=|<|=|>=|>)\s*(\d+)`)
	for _, loc := range length.FindAllStringSubmatchIndex(e, -1) {
		if overlaps(matched, loc) {
			continue
		}
		n, _ := strconv.Atoi(e[loc[4]:loc[5]])
		switch e[loc[2]:loc[3]] {
		case "<=", "=":
			info.tightenLength(n)
		case "<":
			info.tightenLength(n - 1)
		}
		mark(loc)
	}

	cmp := regexp.MustCompile(`(?i)\b` + col + `\s*(>=|<=|<>|!=|>|<|=)\s*` + num)
	for _, loc := range cmp.FindAllStringSubmatchIndex(e, -1) {
		if overlaps(matched, loc) {
			continue
		}
		v, _ := strconv.ParseFloat(e[loc[4]:loc[5]], 64)
		switch e[loc[2]:loc[3]] {
		case ">=":
			info.tightenMin(v, false)
		case ">":
			info.tightenMin(v, true)
		case "<=":
			info.tightenMax(v, false)
		case "<":
			info.tightenMax(v, true)
		case "=":
			info.Values = append(info.Values, e[loc[4]:loc[5]])
		default:
			return info, fmt.Errorf("unsupported CHECK on %s: %s", column, expr)
		}
		mark(loc)
	}
	reversed := regexp.MustCompile(`(?i)` + num + `\s*(<=|<|>=|>)\s*` + col + `\b`)
	for _, loc := range reversed.FindAllStringSubmatchIndex(e, -1) {
		if overlaps(matched, loc) {
			continue
		}
		v, _ := strconv.ParseFloat(e[loc[2]:loc[3]], 64)
		switch e[loc[4]:loc[5]] {
		case "<=":
			info.tightenMin(v, false)
		case "<":
			info.tightenMin(v, true)
		case ">=":
			info.tightenMax(v, false)
		case ">":
			info.tightenMax(v, true)
		}
		mark(loc)
	}

	guards := regexp.MustCompile(`(?i)\b` + col + `\s+IS\s+NOT\s+NULL|\b` + col + `\s*(?:<>|!=)\s*''`)
	for _, loc := range guards.FindAllStringIndex(e, -1) {
		if overlaps(matched, loc) {
			continue
		}
		mark(loc)
	}

	if !remainderOnly.MatchString(remainder(e, matched)) {
		return CheckInfo{}, fmt.Errorf("unsupported CHECK on %s: %s", column, expr)
	}
	info.Values = dedupe(info.Values)
	return info, nil
}

// ApplyCheck parses the column's CHECK expression and folds the result into
// the column's bounds. Strict numeric bounds become inclusive using the
// column's smallest step.
func ApplyCheck(col *Column) error {
	if strings.TrimSpace(col.Check) == "" {
		return nil
	}
	info, err := ParseCheck(col.Name, col.Check)
	if err != nil {
		return err
	}
	if len(info.Values) > 0 {
		if len(col.Values) == 0 {
			col.Values = info.Values
		} else {
			col.Values = intersect(col.Values, info.Values)
		}
	}
	if info.MaxLength > 0 && (col.MaxLength == 0 || info.MaxLength < col.MaxLength) {
		col.MaxLength = info.MaxLength
	}
	step := 1.0
	if col.Type == TypeNumeric {
		step = math.Pow10(-col.Scale)
	}
	if info.Min != nil {
		v := *info.Min
		if info.MinExclusive {
			v += step
		}
		col.Min = &v
	}
	if info.Max != nil {
		v := *info.Max
		if info.MaxExclusive {
			v -= step
		}
		col.Max = &v
	}
	return nil
}

func (c *CheckInfo) tightenMin(v float64, exclusive bool) {
	if c.Min == nil || v > *c.Min || (v == *c.Min && exclusive) {
		c.Min = &v
		c.MinExclusive = exclusive
	}
}

func (c *CheckInfo) tightenMax(v float64, exclusive bool) {
	if c.Max == nil || v < *c.Max || (v == *c.Max && exclusive) {
		c.Max = &v
		c.MaxExclusive = exclusive
	}
}

func (c *CheckInfo) tightenLength(n int) {
	if n > 0 && (c.MaxLength == 0 || n < c.MaxLength) {
		c.MaxLength = n
	}
}

func parseLiterals(list string) []string {
	var out []string
	for _, m := range literalRegex.FindAllStringSubmatch(list, -1) {
		if m[1] != "" || strings.HasPrefix(strings.TrimSpace(m[0]), "'") {
			out = append(out, strings.ReplaceAll(m[1], "''", "'"))
		} else {
			out = append(out, m[2])
		}
	}
	return out
}

func overlaps(spans []span, loc []int) bool {
	for _, s := range spans {
		if loc[0] < s.end && s.start < loc[1] {
			return true
		}
	}
	return false
}

func remainder(e string, spans []span) string {
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	var b strings.Builder
	pos := 0
	for _, s := range spans {
		if s.start < pos {
			if s.end > pos {
				pos = s.end
			}
			continue
		}
		b.WriteString(e[pos:s.start])
		b.WriteString(" ")
		pos = s.end
	}
	b.WriteString(e[pos:])
	return b.String()
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func intersect(a, b []string) []string {
	keep := make(map[string]bool, len(b))
	for _, v := range b {
		keep[v] = true
	}
	var out []string
	for _, v := range a {
		if keep[v] {
			out = append(out, v)
		}
	}
	return out
}
