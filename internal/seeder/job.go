package seeder

import (
	"math"
	"strings"

	"github.com/Rana718/synthdb/internal/classify"
	"github.com/Rana718/synthdb/internal/errors"
	"github.com/Rana718/synthdb/internal/profile"
	"github.com/Rana718/synthdb/internal/schema"
)

// columnPlan is what the enforcer knows about one column.
type columnPlan struct {
	index  int
	col    *schema.Column
	tag    *classify.Tag
	bundle *classify.Bundle
	// fk indexes the table's foreign keys when the column is filled from a
	// parent, -1 otherwise.
	fk      int
	sampler *profile.Sampler
	// unique is the used-value set of a single-column constraint.
	unique     UniqueSet
	sequential bool
}

// fkPlan is one foreign key of the table and how it is filled.
type fkPlan struct {
	index int
	fk    *schema.ForeignKey
	edge  schema.Edge
	// columns indexes fk.Columns into the table's columns.
	columns []int
	pool    *KeyPool
	// unique is set when the key's columns are themselves unique, e.g. a
	// one-to-one extension table.
	unique UniqueSet
	// deferred keys are placeholders until the patch pass; immediate soft
	// keys are drawn at once because the table has no primary key to patch
	// rows by.
	deferred  bool
	immediate bool
}

// compositePlan is a uniqueness constraint over several columns, or over
// columns of a multi-column foreign key.
type compositePlan struct {
	columns []int
	set     UniqueSet
}

// tableJob is the resolved generation plan of one table.
type tableJob struct {
	node       int
	table      *schema.Table
	class      *classify.TablePlan
	rows       int
	columns    []columnPlan
	fks        []fkPlan
	composites []compositePlan
	// guarded lists bundle members with a single-column unique set.
	guarded []int
	// keys lists the column sets other tables reference, committed with the
	// finished batch.
	keys    [][]string
	primary []string
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]bool, len(a))
	for _, c := range a {
		seen[c] = true
	}
	for _, c := range b {
		if !seen[c] {
			return false
		}
	}
	return true
}

// newTableJob resolves a table's plan against the registry. FK-bounded
// domains are measured on the committed parent pools, so the job must be
// built after the table's hard parents are committed.
func (s *Seeder) newTableJob(plan *Plan, node int) *tableJob {
	g := plan.Graph
	t := g.Table(node)
	class := &plan.Tables[node]
	job := &tableJob{
		node:    node,
		table:   t,
		class:   class,
		rows:    plan.Rows[node],
		primary: t.PrimaryKey(),
	}

	job.columns = make([]columnPlan, len(t.Columns))
	for i := range t.Columns {
		col := &t.Columns[i]
		cp := columnPlan{index: i, col: col, tag: &class.Tags[i], fk: fkIndex(t, col.Name)}
		if b := cp.tag.Bundle; b != classify.NoBundle && cp.fk < 0 && textual(col) {
			cp.bundle = &class.Bundles[b]
		}
		if cp.fk < 0 {
			cp.sampler = profile.NewSampler(s.profile.For(t.Name, col.Name))
		}
		job.columns[i] = cp
	}

	for k := range t.ForeignKeys {
		fk := &t.ForeignKeys[k]
		edge, _ := g.EdgeFor(node, k)
		fp := fkPlan{index: k, fk: fk, edge: edge, pool: s.registry.Pool(fk.RefTable, fk.RefColumns)}
		for _, c := range fk.Columns {
			fp.columns = append(fp.columns, t.ColumnIndex(c))
		}
		if !edge.Hard {
			if len(job.primary) > 0 {
				fp.deferred = true
			} else {
				fp.immediate = true
			}
		}
		job.fks = append(job.fks, fp)
	}

	for _, uc := range t.UniqueConstraints() {
		set := s.registry.Unique(t.Name, uc)
		if len(uc) == 1 {
			i := t.ColumnIndex(uc[0])
			if job.columns[i].fk < 0 {
				job.columns[i].unique = set
				continue
			}
		}
		if fp := job.fkCovering(uc); fp != nil {
			fp.unique = set
			continue
		}
		cp := compositePlan{set: set}
		for _, c := range uc {
			cp.columns = append(cp.columns, t.ColumnIndex(c))
		}
		job.composites = append(job.composites, cp)
	}

	if len(job.primary) == 1 {
		cp := &job.columns[t.ColumnIndex(job.primary[0])]
		cp.sequential = cp.col.Type == schema.TypeInteger && cp.fk < 0 && !cp.col.Bounded()
	}
	for i := range job.columns {
		if job.columns[i].bundle != nil && job.columns[i].unique != nil {
			job.guarded = append(job.guarded, i)
		}
	}

	for _, e := range g.In(node) {
		fk := g.Table(e.Child).ForeignKeys[e.FK]
		if !containsKey(job.keys, fk.RefColumns) {
			job.keys = append(job.keys, fk.RefColumns)
		}
	}
	return job
}

func (job *tableJob) fkCovering(columns []string) *fkPlan {
	for k := range job.fks {
		if sameColumns(job.fks[k].fk.Columns, columns) {
			return &job.fks[k]
		}
	}
	return nil
}

func containsKey(keys [][]string, cols []string) bool {
	for _, k := range keys {
		if strings.Join(k, ",") == strings.Join(cols, ",") {
			return true
		}
	}
	return false
}

func textual(col *schema.Column) bool {
	return col.Type == schema.TypeText && !col.Bounded()
}

// unbounded marks a domain too large to ever run out.
const unbounded = -1

// columnDomain counts the distinct values a non-FK column can take, or
// returns unbounded.
func columnDomain(col *schema.Column) int64 {
	if col.Bounded() {
		return int64(len(col.Values))
	}
	switch col.Type {
	case schema.TypeBoolean:
		return 2
	case schema.TypeInteger:
		return span(integerBounds(col))
	case schema.TypeNumeric:
		if col.Precision <= 0 && col.Min == nil && col.Max == nil {
			return unbounded
		}
		return span(numericBounds(col))
	case schema.TypeTemporal:
		if col.IsTimeOfDay() {
			return 24 * 60 * 60
		}
	case schema.TypeText:
		if col.MaxLength > 0 && col.MaxLength <= 4 {
			return int64(math.Pow(float64(len(alphanumeric)), float64(col.MaxLength)))
		}
	}
	return unbounded
}

// span counts the integers in [lo, hi]. The width is taken in uint64 so
// the full int64 range does not wrap.
func span(lo, hi int64) int64 {
	if hi < lo {
		return 0
	}
	if w := uint64(hi) - uint64(lo); w >= 1<<40 {
		return unbounded
	}
	return hi - lo + 1
}

// checkDomains fails when a uniqueness constraint cannot supply the
// requested number of distinct values. fkDomain reports how many keys a
// foreign key can draw from.
func checkDomains(t *schema.Table, rows int, fkDomain func(fk int) int64) error {
	for _, uc := range t.UniqueConstraints() {
		domain := int64(1)
		counted := make(map[int]bool)
		for _, name := range uc {
			var d int64
			if k := fkIndex(t, name); k >= 0 {
				if counted[k] {
					continue
				}
				counted[k] = true
				d = fkDomain(k)
			} else {
				col, _ := t.Column(name)
				d = columnDomain(col)
			}
			if d == unbounded {
				domain = unbounded
				break
			}
			domain *= d
			if domain > 1<<40 {
				domain = unbounded
				break
			}
		}
		if domain != unbounded && domain < int64(rows) {
			return errors.WithStack(&errors.ConstraintUnsatisfiable{
				Table:     t.Name,
				Column:    strings.Join(uc, ","),
				Row:       -1,
				Domain:    int(domain),
				Requested: rows,
				Reason:    "unique value domain is smaller than the requested row count",
			})
		}
	}
	return nil
}

func fkIndex(t *schema.Table, column string) int {
	for k, fk := range t.ForeignKeys {
		for _, c := range fk.Columns {
			if c == column {
				return k
			}
		}
	}
	return -1
}
