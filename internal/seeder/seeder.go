package seeder

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Rana718/synthdb/internal/classify"
	"github.com/Rana718/synthdb/internal/coherence"
	"github.com/Rana718/synthdb/internal/errors"
	"github.com/Rana718/synthdb/internal/export"
	"github.com/Rana718/synthdb/internal/logger"
	"github.com/Rana718/synthdb/internal/profile"
	"github.com/Rana718/synthdb/internal/schema"
	"github.com/Rana718/synthdb/internal/types"
)

// minChunk is the smallest row range worth a worker of its own.
const minChunk = 500

type Seeder struct {
	schema     *schema.Schema
	sink       export.Sink
	profile    profile.Profile
	resolver   *coherence.Resolver
	classifier *classify.Classifier
	registry   *Registry
	seedConfig SeedConfig
}

func NewSeeder(s *schema.Schema, sink export.Sink, seedConfig SeedConfig) *Seeder {
	seedConfig.setDefaults()
	shards := 1
	if seedConfig.Concurrency > 1 {
		shards = seedConfig.Concurrency * 4
	}
	return &Seeder{
		schema:     s,
		sink:       sink,
		resolver:   coherence.NewResolver(seedConfig.Locale),
		classifier: classify.New(seedConfig.Locale),
		registry:   NewRegistry(shards),
		seedConfig: seedConfig,
	}
}

// WithProfile attaches a distribution profile to draw sampled values from.
func (s *Seeder) WithProfile(p profile.Profile) *Seeder {
	s.profile = p
	return s
}

// Plan validates the schema, orders and classifies its tables and checks
// every uniqueness domain against its row target. It generates nothing.
func (s *Seeder) Plan() (*Plan, error) {
	if err := schema.Validate(s.schema); err != nil {
		return nil, err
	}
	g := schema.BuildGraph(s.schema)
	order, err := NewDependencyGraph(g).BuildInsertionOrder()
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Graph:  g,
		Order:  order,
		Tables: s.classifier.ClassifySchema(g),
		Rows:   make([]int, g.Len()),
	}
	for n := 0; n < g.Len(); n++ {
		plan.Rows[n] = s.seedConfig.RowsFor(g.Table(n))
		if plan.Rows[n] < 0 {
			return nil, errors.NewSchemaError(g.Name(n), "", "negative row count %d", plan.Rows[n])
		}
	}
	for n := 0; n < g.Len(); n++ {
		t := g.Table(n)
		err := checkDomains(t, plan.Rows[n], func(fk int) int64 {
			edge, _ := g.EdgeFor(n, fk)
			if !edge.Hard {
				return unbounded
			}
			return int64(plan.Rows[edge.Parent])
		})
		if err != nil {
			plan.Diagnostics = append(plan.Diagnostics, err)
		}
	}
	return plan, nil
}

// Seed generates the dataset into the sink. The sink only commits when
// every table and the patch pass succeeded; on any error it is aborted.
func (s *Seeder) Seed(ctx context.Context) (*Summary, error) {
	start := time.Now()
	plan, err := s.Plan()
	if err != nil {
		return nil, err
	}
	if len(plan.Diagnostics) > 0 {
		return nil, plan.Diagnostics[0]
	}
	logger.Logger.Infow("insertion order resolved",
		"tables", len(plan.Order.Tables), "levels", len(plan.Order.Levels), "deferred", len(plan.Order.Deferred))

	if err := s.sink.Begin(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to open output")
	}
	summary, err := s.generate(ctx, plan)
	if err != nil {
		if abortErr := s.sink.Abort(); abortErr != nil {
			logger.Logger.Warnw("failed to discard partial output", "error", abortErr)
		}
		return nil, err
	}
	if err := s.sink.Commit(ctx); err != nil {
		s.sink.Abort()
		return nil, errors.Wrap(err, "failed to commit output")
	}
	summary.Elapsed = time.Since(start)
	return summary, nil
}

// tableResult is a finished table, kept until the patch pass.
type tableResult struct {
	job     *tableJob
	rows    []generated
	clamped int
}

func (s *Seeder) generate(ctx context.Context, plan *Plan) (*Summary, error) {
	g := plan.Graph
	summary := &Summary{
		Seed:   s.seedConfig.Seed,
		Order:  plan.Order.Names(g),
		Levels: plan.Order.LevelNames(g),
	}
	results := make([]*tableResult, g.Len())

	for level, nodes := range plan.Order.Levels {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "generation cancelled before level %d", level)
		}
		eg := errgroup.Group{}
		eg.SetLimit(s.seedConfig.Concurrency)
		for _, node := range nodes {
			job := s.newTableJob(plan, node)
			eg.Go(func() error {
				res, err := s.generateTable(job)
				if err != nil {
					return err
				}
				results[node] = res
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}

		// whole batches only: keys become drawable once the level is done
		for _, node := range nodes {
			res := results[node]
			s.commit(res)
			if err := s.sink.EmitBatch(ctx, batchOf(res)); err != nil {
				return nil, errors.Wrapf(err, "failed to emit %s", res.job.table.Name)
			}
			logger.Logger.Debugw("table generated", "table", res.job.table.Name, "rows", len(res.rows), "level", level)
		}
	}

	patched, leftNull, err := s.patch(ctx, plan, results)
	if err != nil {
		return nil, err
	}
	for _, node := range plan.Order.Tables {
		res := results[node]
		summary.Tables = append(summary.Tables, TableSummary{
			Table:    res.job.table.Name,
			Rows:     len(res.rows),
			Patched:  patched[node],
			LeftNull: leftNull[node],
			Clamped:  res.clamped,
		})
	}
	return summary, nil
}

// generateTable fills a table's rows, splitting large tables into row
// ranges generated concurrently. Every range has its own random source
// derived from the seed, so a single-worker run is reproducible.
func (s *Seeder) generateTable(job *tableJob) (*tableResult, error) {
	err := checkDomains(job.table, job.rows, func(fk int) int64 {
		if !job.fks[fk].edge.Hard {
			return unbounded
		}
		return int64(job.fks[fk].pool.Len())
	})
	if err != nil {
		return nil, err
	}

	res := &tableResult{job: job, rows: make([]generated, job.rows)}
	chunks := 1
	if s.seedConfig.Concurrency > 1 {
		chunks = max(1, min(s.seedConfig.Concurrency, job.rows/minChunk))
	}
	size := (job.rows + chunks - 1) / max(chunks, 1)
	var clamped atomic.Int64

	eg := errgroup.Group{}
	for c := 0; c < chunks; c++ {
		from, to := c*size, min((c+1)*size, job.rows)
		if from >= to {
			continue
		}
		rng := rand.New(rand.NewSource(s.seedConfig.Seed + int64(job.node+1)*1_000_003 + int64(c)*7_919))
		w := &worker{
			job:      job,
			cfg:      &s.seedConfig,
			resolver: s.resolver,
			rand:     rng,
			gen:      NewDataGenerator(rng, s.resolver, s.seedConfig.Epoch),
			clamped:  &clamped,
		}
		eg.Go(func() error {
			for i := from; i < to; i++ {
				row, err := w.row(i)
				if err != nil {
					return err
				}
				res.rows[i] = row
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	res.clamped = int(clamped.Load())
	if res.clamped > 0 {
		logger.Logger.Warnw("numeric values clamped into range", "table", job.table.Name, "count", res.clamped)
	}
	return res, nil
}

// commit publishes a finished table's referenced keys.
func (s *Seeder) commit(res *tableResult) {
	job := res.job
	for _, cols := range job.keys {
		entries := make([]KeyEntry, 0, len(res.rows))
		for _, r := range res.rows {
			values := make([]any, len(cols))
			complete := true
			for i, c := range cols {
				values[i] = r.row[c]
				if values[i] == nil {
					complete = false
				}
			}
			if complete {
				entries = append(entries, KeyEntry{Values: values, Organization: r.org})
			}
		}
		s.registry.Commit(job.table.Name, cols, entries)
	}
}

func batchOf(res *tableResult) types.Batch {
	t := res.job.table
	b := types.Batch{
		Table:            t.Name,
		Columns:          t.ColumnNames(),
		Rows:             make([]types.Row, len(res.rows)),
		OverrideIdentity: t.OverridesIdentity(),
		Sequences:        t.SequenceColumns(),
	}
	for i, r := range res.rows {
		b.Rows[i] = r.row.Clone()
	}
	return b
}

// patch fills deferred references now that every parent is committed.
// References whose parent has no rows stay NULL; so does a
// self-reference when the only candidate is the row itself.
func (s *Seeder) patch(ctx context.Context, plan *Plan, results []*tableResult) (patched, leftNull []int, err error) {
	g := plan.Graph
	patched = make([]int, g.Len())
	leftNull = make([]int, g.Len())
	rng := rand.New(rand.NewSource(s.seedConfig.Seed - 1))
	warned := make(map[[2]int]bool)

	for _, node := range plan.Order.Tables {
		res := results[node]
		job := res.job
		for i := range res.rows {
			r := &res.rows[i]
			if len(r.pending) == 0 {
				continue
			}
			values := make(types.Row)
			for _, k := range r.pending {
				fp := &job.fks[k]
				e, ok := s.drawPatch(rng, job, fp, r.row)
				if !ok {
					leftNull[node]++
					if fp.pool.Len() == 0 && !warned[[2]int{node, k}] {
						warned[[2]int{node, k}] = true
						logger.Logger.Warnw("deferred reference left NULL: parent has no rows",
							"table", job.table.Name, "parent", fp.fk.RefTable)
					}
					continue
				}
				for j, c := range fp.fk.Columns {
					r.row[c] = e.Values[j]
					values[c] = e.Values[j]
				}
				patched[node]++
			}
			if len(values) == 0 {
				continue
			}
			key := make(types.Row, len(job.primary))
			for _, c := range job.primary {
				key[c] = r.row[c]
			}
			if err := s.sink.EmitPatch(ctx, types.Patch{Table: job.table.Name, Index: i, Key: key, Values: values}); err != nil {
				return nil, nil, errors.Wrapf(err, "failed to emit patch for %s row %d", job.table.Name, i)
			}
		}
	}
	return patched, leftNull, nil
}

func (s *Seeder) drawPatch(rng *rand.Rand, job *tableJob, fp *fkPlan, row types.Row) (KeyEntry, bool) {
	n := fp.pool.Len()
	if n == 0 {
		return KeyEntry{}, false
	}
	self := fp.edge.SelfLoop() && !s.seedConfig.AllowSelfReference
	acceptable := func(e KeyEntry) bool {
		if self && isOwnKey(e, fp, row) {
			return false
		}
		return fp.unique == nil || fp.unique.Claim(tupleKey(e.Values))
	}
	for attempt := 0; attempt < s.seedConfig.UniqueRetries; attempt++ {
		if e, _ := fp.pool.Draw(rng, s.seedConfig.FKSkew); acceptable(e) {
			return e, true
		}
	}
	start := rng.Intn(n)
	for j := 0; j < n; j++ {
		if e := fp.pool.At((start + j) % n); acceptable(e) {
			return e, true
		}
	}
	return KeyEntry{}, false
}

// isOwnKey reports whether a parent key is the row's own referenced key.
func isOwnKey(e KeyEntry, fp *fkPlan, row types.Row) bool {
	for j, c := range fp.fk.RefColumns {
		if uniqueKey(row[c]) != uniqueKey(e.Values[j]) {
			return false
		}
	}
	return true
}
