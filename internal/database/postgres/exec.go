package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Rana718/synthdb/internal/errors"
	"github.com/Rana718/synthdb/internal/logger"
	"github.com/Rana718/synthdb/internal/types"
)

// insertBatchSize bounds the rows of one INSERT so the statement stays
// under the protocol's parameter limit for wide tables.
const insertBatchSize = 200

// Apply loads a dataset in a single transaction: batches in order, then the
// patch updates. Constraint checks are deferred to commit, so a failure
// anywhere leaves the database untouched.
func (p *Adapter) Apply(ctx context.Context, batches []types.Batch, patches []types.Patch) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SET CONSTRAINTS ALL DEFERRED"); err != nil {
		return errors.Wrap(err, "failed to defer constraints")
	}

	for _, b := range batches {
		if err := p.insertBatch(ctx, tx, b); err != nil {
			return err
		}
	}
	for _, patch := range patches {
		if err := p.update(ctx, tx, patch); err != nil {
			return err
		}
	}
	for _, b := range batches {
		for _, c := range b.Sequences {
			if err := p.resetSequence(ctx, tx, b.Table, c); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit generated data")
	}
	logger.Logger.Infow("dataset applied", "tables", len(batches), "patches", len(patches))
	return nil
}

func (p *Adapter) insertBatch(ctx context.Context, tx pgx.Tx, b types.Batch) error {
	columns := make([]string, len(b.Columns))
	for i, c := range b.Columns {
		columns[i] = pgx.Identifier{c}.Sanitize()
	}
	for start := 0; start < len(b.Rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(b.Rows))
		q := p.qb.Insert(p.qualified(b.Table)).Columns(columns...)
		for _, row := range b.Rows[start:end] {
			values := make([]any, len(b.Columns))
			for i, c := range b.Columns {
				values[i] = argument(row[c])
			}
			q = q.Values(values...)
		}
		query, args, err := q.ToSql()
		if err != nil {
			return errors.Wrapf(err, "failed to build insert for %s", b.Table)
		}
		if b.OverrideIdentity {
			query = overriding(query)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return errors.Wrapf(err, "failed to insert rows %d-%d into %s", start, end-1, b.Table)
		}
	}
	return nil
}

// overriding puts OVERRIDING SYSTEM VALUE between the column list and the
// VALUES clause of a built INSERT. The first placeholder only occurs in the
// VALUES clause, so it anchors the split.
func overriding(query string) string {
	i := strings.Index(query, " VALUES ($1")
	if i < 0 {
		return query
	}
	return query[:i] + " OVERRIDING SYSTEM VALUE" + query[i:]
}

// resetSequence moves the sequence behind table.column past the loaded keys.
func (p *Adapter) resetSequence(ctx context.Context, tx pgx.Tx, table, column string) error {
	col := pgx.Identifier{column}.Sanitize()
	query, args, err := p.qb.Select().
		Column(squirrel.Expr(
			"setval(pg_get_serial_sequence(?, ?), COALESCE(max("+col+"), 1), max("+col+") IS NOT NULL)",
			p.qualified(table), column)).
		From(p.qualified(table)).
		ToSql()
	if err != nil {
		return errors.Wrapf(err, "failed to build sequence reset for %s.%s", table, column)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return errors.Wrapf(err, "failed to reset sequence of %s.%s", table, column)
	}
	return nil
}

func (p *Adapter) update(ctx context.Context, tx pgx.Tx, patch types.Patch) error {
	q := p.qb.Update(p.qualified(patch.Table))
	for c, v := range patch.Values {
		q = q.Set(pgx.Identifier{c}.Sanitize(), argument(v))
	}
	where := squirrel.Eq{}
	for c, v := range patch.Key {
		where[pgx.Identifier{c}.Sanitize()] = argument(v)
	}
	query, args, err := q.Where(where).ToSql()
	if err != nil {
		return errors.Wrapf(err, "failed to build update for %s", patch.Table)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return errors.Wrapf(err, "failed to patch %s row %d", patch.Table, patch.Index)
	}
	return nil
}

// argument converts a generated value to a query argument pgx can encode
// for any column type.
func argument(v any) any {
	switch x := v.(type) {
	case nil, string, int64, int, bool, float64:
		return x
	case time.Time:
		return x
	case types.Date:
		return x.String()
	case types.TimeOfDay:
		return x.String()
	case types.Numeric:
		return x.String()
	case types.JSON:
		return string(x)
	case types.Array:
		return x.Literal()
	case uuid.UUID:
		return x.String()
	}
	return types.Format(v)
}
