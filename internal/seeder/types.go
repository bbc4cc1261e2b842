package seeder

import (
	"time"

	"github.com/Rana718/synthdb/internal/classify"
	"github.com/Rana718/synthdb/internal/schema"
)

type SeedConfig struct {
	Rows      int            // Default rows per table
	Tables    map[string]int // Per-table counts, override declared targets and Rows
	NullRate  float64        // Chance a nullable column is NULL
	SampleMix float64        // Share of values drawn from the profile when one exists
	// UniqueRetries bounds resampling after a uniqueness collision before a
	// counter suffix is applied.
	UniqueRetries int
	// NumericRetries bounds regeneration of out-of-range numbers before they
	// are clamped and counted.
	NumericRetries     int
	Concurrency        int
	Seed               int64
	Locale             string
	AllowSelfReference bool
	FKSkew             float64   // 0 draws parents uniformly, >0 favours early parent rows
	Epoch              time.Time // Reference time for temporal values
}

func (c *SeedConfig) setDefaults() {
	if c.UniqueRetries <= 0 {
		c.UniqueRetries = 20
	}
	if c.NumericRetries <= 0 {
		c.NumericRetries = 20
	}
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	if c.Locale == "" {
		c.Locale = "en"
	}
	if c.Epoch.IsZero() {
		c.Epoch = time.Now().UTC().Truncate(time.Second)
	}
}

// RowsFor resolves a table's row target: a per-table count from the
// configuration, then the snapshot's declared target, then the default.
func (c *SeedConfig) RowsFor(t *schema.Table) int {
	if n, ok := c.Tables[t.Name]; ok {
		return n
	}
	if t.Rows > 0 {
		return t.Rows
	}
	return c.Rows
}

// Plan is everything decided before the first row: the graph, the order,
// the classification and the row targets, indexed by graph node.
type Plan struct {
	Graph  *schema.Graph
	Order  *InsertionOrder
	Tables []classify.TablePlan
	Rows   []int
	// Diagnostics are the uniqueness domains found too small for their
	// row targets. Generation refuses to start while any is present.
	Diagnostics []error
}

// TableSummary reports what a run did to one table.
type TableSummary struct {
	Table    string
	Rows     int
	Patched  int // deferred references filled by the patch pass
	LeftNull int // deferred references left NULL
	Clamped  int // numeric values clamped into range
}

// Summary reports a finished run.
type Summary struct {
	Seed    int64
	Order   []string
	Levels  [][]string
	Tables  []TableSummary
	Elapsed time.Duration
}

// Table returns the summary of one table.
func (s *Summary) Table(name string) (TableSummary, bool) {
	for _, t := range s.Tables {
		if t.Table == name {
			return t, true
		}
	}
	return TableSummary{}, false
}

// Totals sums the per-table counters.
func (s *Summary) Totals() TableSummary {
	var total TableSummary
	for _, t := range s.Tables {
		total.Rows += t.Rows
		total.Patched += t.Patched
		total.LeftNull += t.LeftNull
		total.Clamped += t.Clamped
	}
	return total
}
