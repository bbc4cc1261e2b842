// Package profile holds distribution profiles: per column, real values
// observed in a source database with their relative weights. Generators mix
// draws from a profile with synthetic values; the profile itself never
// bypasses a column's constraints.
package profile

import (
	"context"
	"math/rand"
	"sort"

	"github.com/Rana718/synthdb/internal/schema"
)

// Entry is one observed value and its weight.
type Entry struct {
	Value  string  `yaml:"value" json:"value"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// Profile maps "table.column" to the column's weighted values.
type Profile map[string][]Entry

// Key builds the profile key of a column.
func Key(table, column string) string {
	return table + "." + column
}

// For returns the entries of one column.
func (p Profile) For(table, column string) []Entry {
	if p == nil {
		return nil
	}
	return p[Key(table, column)]
}

// Provider builds a profile for a schema, typically by sampling a live
// database. percent is the share of each table to sample.
type Provider interface {
	Sample(ctx context.Context, s *schema.Schema, percent float64) (Profile, error)
}

// Sampler draws values with probability proportional to their weight.
// It is immutable and safe for concurrent use.
type Sampler struct {
	values     []string
	cumulative []float64
	total      float64
}

// NewSampler builds a sampler, skipping entries with a non-positive weight.
// It returns nil when nothing is left to draw from.
func NewSampler(entries []Entry) *Sampler {
	s := &Sampler{}
	for _, e := range entries {
		if e.Weight <= 0 {
			continue
		}
		s.total += e.Weight
		s.values = append(s.values, e.Value)
		s.cumulative = append(s.cumulative, s.total)
	}
	if len(s.values) == 0 {
		return nil
	}
	return s
}

// Draw returns one value.
func (s *Sampler) Draw(rng *rand.Rand) string {
	r := rng.Float64() * s.total
	i := sort.Search(len(s.cumulative), func(i int) bool { return s.cumulative[i] > r })
	if i == len(s.values) {
		i--
	}
	return s.values[i]
}

// Len returns the number of distinct values.
func (s *Sampler) Len() int {
	return len(s.values)
}

// Values returns the distinct values in profile order.
func (s *Sampler) Values() []string {
	return append([]string(nil), s.values...)
}
