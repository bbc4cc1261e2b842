package seeder

import (
	"math"
	"math/rand"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Rana718/synthdb/internal/classify"
	"github.com/Rana718/synthdb/internal/coherence"
	"github.com/Rana718/synthdb/internal/errors"
	"github.com/Rana718/synthdb/internal/schema"
	"github.com/Rana718/synthdb/internal/types"
)

// worker generates a contiguous range of one table's rows. Workers of the
// same table share only the job's unique sets.
type worker struct {
	job      *tableJob
	cfg      *SeedConfig
	resolver *coherence.Resolver
	rand     *rand.Rand
	gen      *DataGenerator
	clamped  *atomic.Int64
}

// generated is one finished row plus what the orchestrator keeps about it.
type generated struct {
	row types.Row
	// org is the row's own organization identity, handed to child rows.
	org *coherence.Organization
	// pending lists foreign keys left as placeholders for the patch pass.
	pending []int
}

func (w *worker) row(i int) (generated, error) {
	job := w.job
	out := generated{row: make(types.Row, len(job.columns))}

	drawn := make([]*KeyEntry, len(job.fks))
	for k := range job.fks {
		fp := &job.fks[k]
		switch {
		case fp.edge.Hard:
			e, err := w.drawKey(fp, i)
			if err != nil {
				return out, err
			}
			drawn[k] = &e
			setKey(out.row, job.table, fp, e.Values)
		case w.nulled():
			setKey(out.row, job.table, fp, nil)
		case fp.deferred:
			setKey(out.row, job.table, fp, nil)
			out.pending = append(out.pending, k)
		default:
			// no primary key to patch by: draw now if the parent is already
			// committed, otherwise stay NULL
			if e, ok := fp.pool.Draw(w.rand, w.cfg.FKSkew); ok && fp.edge.Parent != job.node {
				setKey(out.row, job.table, fp, e.Values)
			} else {
				setKey(out.row, job.table, fp, nil)
			}
		}
	}

	if len(job.class.Bundles) > 0 || job.class.Organization {
		id, overrides, err := w.identity(i, drawn)
		if err != nil {
			return out, err
		}
		out.org = id.Organization
		for c := range job.columns {
			cp := &job.columns[c]
			if cp.bundle == nil {
				continue
			}
			if v, ok := overrides[c]; ok {
				out.row[cp.col.Name] = v
				continue
			}
			if v, ok := w.bundleValue(&id, cp); ok {
				out.row[cp.col.Name] = v
			}
		}
		publishDomain(job, out.org, out.row)
	}

	for c := range job.columns {
		cp := &job.columns[c]
		if cp.fk >= 0 {
			continue
		}
		if _, done := out.row[cp.col.Name]; done {
			continue
		}
		v, err := w.value(cp, i)
		if err != nil {
			return out, err
		}
		out.row[cp.col.Name] = v
	}

	for k := range job.composites {
		if err := w.composite(&job.composites[k], out.row, drawn, i); err != nil {
			return out, err
		}
	}
	return out, nil
}

// publishDomain makes the organization handed to child rows carry the
// domain as stored, after the column's length bound, so child e-mails
// match the parent row.
func publishDomain(job *tableJob, org *coherence.Organization, row types.Row) {
	if org == nil {
		return
	}
	for c := range job.columns {
		cp := &job.columns[c]
		if cp.bundle == nil || cp.bundle.Kind != classify.OrganizationBundle || cp.bundle.Inherits() ||
			cp.tag.Category != classify.DomainName {
			continue
		}
		if s, ok := row[cp.col.Name].(string); ok && s != org.Domain {
			org.SetDomain(s)
		}
		return
	}
}

func (w *worker) nulled() bool {
	return w.cfg.NullRate > 0 && w.rand.Float64() < w.cfg.NullRate
}

func setKey(row types.Row, t *schema.Table, fp *fkPlan, values []any) {
	for j, c := range fp.columns {
		if values == nil {
			row[t.Columns[c].Name] = nil
		} else {
			row[t.Columns[c].Name] = values[j]
		}
	}
}

// drawKey draws a parent key for a hard foreign key. A key that must itself
// be unique is claimed; when random draws keep colliding the pool is walked
// in order from a random start.
func (w *worker) drawKey(fp *fkPlan, i int) (KeyEntry, error) {
	n := fp.pool.Len()
	if n == 0 {
		return KeyEntry{}, errors.WithStack(&errors.ReferentialGapError{
			Table:  w.job.table.Name,
			Column: strings.Join(fp.fk.Columns, ","),
			Parent: fp.fk.RefTable,
			Row:    i,
		})
	}
	if fp.unique == nil {
		e, _ := fp.pool.Draw(w.rand, w.cfg.FKSkew)
		return e, nil
	}
	for attempt := 0; attempt < w.cfg.UniqueRetries; attempt++ {
		e, _ := fp.pool.Draw(w.rand, w.cfg.FKSkew)
		if fp.unique.Claim(tupleKey(e.Values)) {
			return e, nil
		}
	}
	start := w.rand.Intn(n)
	for j := 0; j < n; j++ {
		e := fp.pool.At((start + j) % n)
		if fp.unique.Claim(tupleKey(e.Values)) {
			return e, nil
		}
	}
	return KeyEntry{}, errors.WithStack(&errors.ConstraintUnsatisfiable{
		Table:     w.job.table.Name,
		Column:    strings.Join(fp.fk.Columns, ","),
		Row:       i,
		Domain:    n,
		Requested: w.job.rows,
		Reason:    "every parent key is already referenced",
	})
}

// identity builds the row's identities and claims the unique bundle
// members. Values that collide are first resampled with a fresh identity,
// then disambiguated with the set's counter; members whose identity cannot
// change (an inherited organization) get a suffixed value, returned in the
// override map. A member whose value changes with the identity gives its
// earlier claim back.
func (w *worker) identity(i int, drawn []*KeyEntry) (coherence.Identity, map[int]any, error) {
	job := w.job
	parent := func(fk int) *coherence.Organization {
		if fk >= 0 && fk < len(drawn) && drawn[fk] != nil {
			return drawn[fk].Organization
		}
		return nil
	}
	id := w.resolver.Resolve(w.rand, job.class, parent)
	if len(job.guarded) == 0 {
		return id, nil, nil
	}

	for attempt := 0; attempt < w.cfg.UniqueRetries && w.taken(&id); attempt++ {
		id = w.resolver.Resolve(w.rand, job.class, parent)
	}

	overrides := make(map[int]any)
	claimed := make(map[int]string)
	for round := 0; ; round++ {
		collided := -1
		for _, c := range job.guarded {
			if _, ok := overrides[c]; ok {
				continue
			}
			cp := &job.columns[c]
			v, ok := w.bundleValue(&id, cp)
			if !ok {
				continue
			}
			key := uniqueKey(v)
			if prev, ok := claimed[c]; ok {
				if prev == key {
					continue
				}
				cp.unique.Release(prev)
				delete(claimed, c)
			}
			if !cp.unique.Claim(key) {
				collided = c
				break
			}
			claimed[c] = key
		}
		if collided < 0 {
			return id, overrides, nil
		}
		cp := &job.columns[collided]
		if round < w.cfg.UniqueRetries && disambiguates(&id, cp) {
			id.Disambiguate(cp.bundle, int(cp.unique.Next()))
			continue
		}
		v, _ := w.bundleValue(&id, cp)
		fixed, err := w.suffixUntilFree(cp, v, i)
		if err != nil {
			return id, nil, err
		}
		overrides[collided] = fixed
	}
}

// taken reports whether any unique bundle member is already used.
func (w *worker) taken(id *coherence.Identity) bool {
	for _, c := range w.job.guarded {
		cp := &w.job.columns[c]
		v, ok := w.bundleValue(id, cp)
		if ok && cp.unique.Contains(uniqueKey(v)) {
			return true
		}
	}
	return false
}

// disambiguates reports whether disambiguating the identity changes the
// column's value.
func disambiguates(id *coherence.Identity, cp *columnPlan) bool {
	switch cp.bundle.Kind {
	case classify.PersonBundle:
		return id.Person != nil && (cp.tag.Category == classify.EmailAddress || cp.tag.Category == classify.Username)
	case classify.OrganizationBundle:
		return !cp.bundle.Inherits() && id.Organization != nil
	}
	return false
}

func (w *worker) bundleValue(id *coherence.Identity, cp *columnPlan) (any, bool) {
	s, ok := id.Value(cp.bundle, cp.tag.Category)
	if !ok {
		return nil, false
	}
	return fitText(s, cp.col.MaxLength, cp.tag.Category == classify.EmailAddress), true
}

// value produces one conforming value for an independent column.
func (w *worker) value(cp *columnPlan, i int) (any, error) {
	col := cp.col
	if col.Nullable && !col.PrimaryKey && w.nulled() {
		return nil, nil
	}
	if cp.sequential {
		lo, hi := integerBounds(col)
		v := max(lo, 1) + int64(i)
		if v > hi {
			return nil, w.exhausted(cp, i, "sequential key passed the column's upper bound")
		}
		cp.unique.Claim(uniqueKey(v))
		return v, nil
	}

	v := w.candidate(cp)
	if cp.unique == nil {
		return v, nil
	}
	for attempt := 0; attempt < w.cfg.UniqueRetries; attempt++ {
		if cp.unique.Claim(uniqueKey(v)) {
			return v, nil
		}
		v = w.candidate(cp)
	}
	if cp.unique.Claim(uniqueKey(v)) {
		return v, nil
	}
	if col.Bounded() || col.Type == schema.TypeBoolean {
		return w.scan(cp, i)
	}
	return w.suffixUntilFree(cp, v, i)
}

// candidate draws a sampled or synthetic value and makes it conform to the
// column's length, precision and CHECK bounds.
func (w *worker) candidate(cp *columnPlan) any {
	if cp.sampler != nil && w.rand.Float64() < w.cfg.SampleMix {
		if v, ok := parseSampled(cp.col, cp.sampler.Draw(w.rand)); ok {
			if v, ok := w.conform(cp, v, false); ok {
				return v
			}
		}
	}
	for attempt := 0; ; attempt++ {
		v := w.gen.Generate(cp.tag, cp.col)
		last := attempt >= w.cfg.NumericRetries
		if v, ok := w.conform(cp, v, last); ok {
			return v
		}
	}
}

// conform applies the declared bounds. Out-of-range numbers are rejected
// so the caller regenerates them, unless clamp is set, in which case they
// are clamped and counted.
func (w *worker) conform(cp *columnPlan, v any, clamp bool) (any, bool) {
	col := cp.col
	if col.Bounded() {
		s := types.Format(v)
		for _, allowed := range col.Values {
			if allowed == s {
				return typedValue(col, s), true
			}
		}
		return nil, false
	}
	switch x := v.(type) {
	case string:
		return fitText(x, col.MaxLength, cp.tag.Category == classify.EmailAddress), true
	case int64:
		lo, hi := integerBounds(col)
		if x >= lo && x <= hi {
			return x, true
		}
		if !clamp {
			return nil, false
		}
		w.clamped.Add(1)
		return min(max(x, lo), hi), true
	case types.Numeric:
		scale := numericScale(col)
		n := rescale(x, scale)
		lo, hi := numericBounds(col)
		if n.Unscaled >= lo && n.Unscaled <= hi {
			return n, true
		}
		if !clamp {
			return nil, false
		}
		w.clamped.Add(1)
		n.Unscaled = min(max(n.Unscaled, lo), hi)
		return n, true
	}
	return v, true
}

// scan walks a finite value set from a random start for an unused value.
func (w *worker) scan(cp *columnPlan, i int) (any, error) {
	var values []any
	if cp.col.Bounded() {
		for _, s := range cp.col.Values {
			values = append(values, typedValue(cp.col, s))
		}
	} else {
		values = []any{false, true}
	}
	start := w.rand.Intn(len(values))
	for j := range values {
		v := values[(start+j)%len(values)]
		if cp.unique.Claim(uniqueKey(v)) {
			return v, nil
		}
	}
	return nil, w.exhausted(cp, i, "every allowed value is already used")
}

// suffixUntilFree disambiguates v with the set's counter until the result
// is unused. Each counter value is tried once, so the loop is bounded by the
// number of rows plus the retry budget.
func (w *worker) suffixUntilFree(cp *columnPlan, v any, i int) (any, error) {
	limit := w.job.rows + w.cfg.UniqueRetries + 1
	for attempt := 0; attempt < limit; attempt++ {
		s, ok := w.suffixed(cp, v, cp.unique.Next())
		if !ok {
			break
		}
		if cp.unique.Claim(uniqueKey(s)) {
			return s, nil
		}
	}
	return nil, w.exhausted(cp, i, "no disambiguated value fits the column")
}

func (w *worker) exhausted(cp *columnPlan, i int, reason string) error {
	return errors.WithStack(&errors.ConstraintUnsatisfiable{
		Table:     w.job.table.Name,
		Column:    cp.col.Name,
		Row:       i,
		Domain:    int(columnDomain(cp.col)),
		Requested: w.job.rows,
		Reason:    reason,
	})
}

// suffixed derives the n-th disambiguated form of v. Text keeps its
// prefix; numbers and times walk their domain upward from its low end.
func (w *worker) suffixed(cp *columnPlan, v any, n int64) (any, bool) {
	col := cp.col
	switch x := v.(type) {
	case string:
		return suffixText(x, n, col.MaxLength, cp.tag.Category == classify.EmailAddress)
	case int64:
		lo, hi := integerBounds(col)
		base := lo
		if col.Min == nil && col.Max == nil && hi > 1_000_000_000 {
			base = 1_000_000
		}
		s := base + n - 1
		return s, s <= hi
	case types.Numeric:
		lo, hi := numericBounds(col)
		base := lo
		if col.Precision <= 0 && col.Min == nil && col.Max == nil {
			base = int64(1_000_000 * math.Pow10(x.Scale))
		}
		s := types.Numeric{Unscaled: base + n - 1, Scale: x.Scale}
		return s, s.Unscaled <= hi
	case types.Date:
		return types.Date{Time: w.gen.epoch.Truncate(24 * time.Hour).AddDate(0, 0, int(n))}, true
	case types.TimeOfDay:
		if n >= 24*60*60 {
			return nil, false
		}
		return types.TimeOfDay{Time: time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(n) * time.Second)}, true
	case time.Time:
		return w.gen.epoch.Truncate(time.Second).Add(time.Duration(n) * time.Second), true
	case uuid.UUID:
		return w.gen.uuid(), true
	case types.JSON:
		return types.JSON(`{"n": ` + strconv.FormatInt(n, 10) + `}`), true
	case types.Array:
		return append(append(types.Array{}, x...), n), true
	}
	return suffixText(types.Format(v), n, col.MaxLength, false)
}

// composite enforces a multi-column uniqueness constraint on a finished
// row. Rows with a NULL member never collide. Colliding rows regenerate
// their free members (and redraw foreign keys that feed no identity), then
// suffix the first text or integer member.
func (w *worker) composite(cp *compositePlan, row types.Row, drawn []*KeyEntry, i int) error {
	job := w.job
	key, ok := compositeKey(job.table, cp.columns, row)
	if !ok || cp.set.Claim(key) {
		return nil
	}
	for attempt := 0; attempt < w.cfg.UniqueRetries; attempt++ {
		w.reroll(cp, row, drawn)
		key, ok = compositeKey(job.table, cp.columns, row)
		if !ok || cp.set.Claim(key) {
			return nil
		}
	}
	for _, c := range cp.columns {
		col := &job.columns[c]
		if col.fk >= 0 || col.unique != nil || col.bundle != nil {
			continue
		}
		switch row[col.col.Name].(type) {
		case string, int64:
		default:
			continue
		}
		base := row[col.col.Name]
		limit := job.rows + w.cfg.UniqueRetries + 1
		for attempt := 0; attempt < limit; attempt++ {
			s, ok := w.suffixed(col, base, cp.set.Next())
			if !ok {
				break
			}
			row[col.col.Name] = s
			if key, ok = compositeKey(job.table, cp.columns, row); !ok || cp.set.Claim(key) {
				return nil
			}
		}
	}
	names := make([]string, len(cp.columns))
	for k, c := range cp.columns {
		names[k] = job.table.Columns[c].Name
	}
	return errors.WithStack(&errors.ConstraintUnsatisfiable{
		Table:     job.table.Name,
		Column:    strings.Join(names, ","),
		Row:       i,
		Domain:    -1,
		Requested: job.rows,
		Reason:    "no free combination left for the composite key",
	})
}

func (w *worker) reroll(cp *compositePlan, row types.Row, drawn []*KeyEntry) {
	job := w.job
	inherited := make(map[int]bool)
	for _, b := range job.class.Bundles {
		if b.Inherits() {
			inherited[b.InheritFK] = true
		}
	}
	for _, c := range cp.columns {
		col := &job.columns[c]
		switch {
		case col.fk >= 0:
			fp := &job.fks[col.fk]
			if !fp.edge.Hard || inherited[fp.index] || fp.unique != nil {
				continue
			}
			if e, ok := fp.pool.Draw(w.rand, w.cfg.FKSkew); ok {
				drawn[fp.index] = &e
				setKey(row, job.table, fp, e.Values)
			}
		case col.unique == nil && col.bundle == nil && !col.sequential:
			row[col.col.Name] = w.candidate(col)
		}
	}
}

func compositeKey(t *schema.Table, columns []int, row types.Row) (string, bool) {
	values := make([]any, len(columns))
	for k, c := range columns {
		v := row[t.Columns[c].Name]
		if v == nil {
			return "", false
		}
		values[k] = v
	}
	return tupleKey(values), true
}

func uniqueKey(v any) string {
	return types.Format(v)
}

func tupleKey(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = types.Format(v)
	}
	return strings.Join(parts, "\x1f")
}

// fitText cuts s to max characters. E-mail addresses lose characters from
// the local part so the domain survives.
func fitText(s string, max int, email bool) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	if email {
		if at := strings.LastIndexByte(s, '@'); at > 0 {
			domain := s[at:]
			if keep := max - utf8.RuneCountInString(domain); keep >= 1 {
				return truncateRunes(s[:at], keep) + domain
			}
		}
	}
	return truncateRunes(s, max)
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// suffixText appends n to s, in base 36 when decimal does not fit, cutting
// the prefix to keep within max. An e-mail keeps the suffix in its local
// part.
func suffixText(s string, n int64, max int, email bool) (string, bool) {
	suffix := strconv.FormatInt(n, 10)
	if max > 0 && len(suffix) > max {
		suffix = strconv.FormatInt(n, 36)
	}
	if max > 0 && len(suffix) > max {
		return "", false
	}
	if email {
		if at := strings.LastIndexByte(s, '@'); at > 0 {
			local, domain := s[:at], s[at:]
			if max <= 0 {
				return local + suffix + domain, true
			}
			if keep := max - utf8.RuneCountInString(domain) - len(suffix); keep >= 1 {
				return truncateRunes(local, keep) + suffix + domain, true
			}
		}
	}
	if max <= 0 {
		return s + suffix, true
	}
	return truncateRunes(s, max-len(suffix)) + suffix, true
}

// integerBounds is the inclusive range an integer column accepts: its
// storage width cut by CHECK bounds.
func integerBounds(col *schema.Column) (int64, int64) {
	lo, hi := int64(math.MinInt64), int64(math.MaxInt64)
	switch strings.ToLower(strings.TrimSpace(col.SQLType)) {
	case "smallint", "int2", "smallserial":
		lo, hi = math.MinInt16, math.MaxInt16
	case "integer", "int", "int4", "serial", "serial4":
		lo, hi = math.MinInt32, math.MaxInt32
	}
	if col.Min != nil && *col.Min > float64(lo) {
		lo = int64(math.Ceil(*col.Min))
	}
	if col.Max != nil && *col.Max < float64(hi) {
		hi = int64(math.Floor(*col.Max))
	}
	return lo, hi
}

// numericBounds is the inclusive range of unscaled values a numeric column
// accepts: magnitude below 10^(precision-scale), cut by CHECK bounds.
func numericBounds(col *schema.Column) (int64, int64) {
	scale := numericScale(col)
	lo, hi := int64(math.MinInt64/2), int64(math.MaxInt64/2)
	if col.Precision > 0 && col.Precision < 18 {
		hi = int64(math.Pow10(col.Precision)) - 1
		lo = -hi
	}
	unit := math.Pow10(scale)
	if col.Min != nil {
		if m := math.Ceil(*col.Min*unit - 1e-9); m > float64(lo) {
			lo = int64(m)
		}
	}
	if col.Max != nil {
		if m := math.Floor(*col.Max*unit + 1e-9); m < float64(hi) {
			hi = int64(m)
		}
	}
	return lo, hi
}

// rescale rounds a numeric to another scale.
func rescale(n types.Numeric, scale int) types.Numeric {
	if n.Scale == scale {
		return n
	}
	return types.NewNumeric(n.Float64(), scale)
}

// typedValue converts an allowed-value label to the column's type, keeping
// the label when it does not parse.
func typedValue(col *schema.Column, s string) any {
	if v, ok := parseSampled(col, s); ok {
		return v
	}
	return s
}

// parseSampled converts a profile value to the column's type. Values that
// do not parse are dropped in favour of a synthetic one.
func parseSampled(col *schema.Column, s string) (any, bool) {
	switch col.Type {
	case schema.TypeInteger:
		v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		return v, err == nil
	case schema.TypeNumeric:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return types.NewNumeric(f, numericScale(col)), err == nil
	case schema.TypeBoolean:
		v, err := strconv.ParseBool(strings.TrimSpace(s))
		return v, err == nil
	case schema.TypeUUID:
		v, err := uuid.Parse(s)
		return v, err == nil
	case schema.TypeTemporal:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05Z07:00", "2006-01-02 15:04:05", "2006-01-02", "15:04:05"} {
			t, err := time.Parse(layout, s)
			if err != nil {
				continue
			}
			switch {
			case col.IsDate():
				return types.Date{Time: t}, true
			case col.IsTimeOfDay():
				return types.TimeOfDay{Time: t}, true
			}
			return t.UTC(), true
		}
		return nil, false
	case schema.TypeJSON, schema.TypeArray:
		return nil, false
	}
	return s, true
}
