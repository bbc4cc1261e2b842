package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Rana718/synthdb/internal/errors"
	"github.com/Rana718/synthdb/internal/logger"
	"github.com/Rana718/synthdb/internal/profile"
	"github.com/Rana718/synthdb/internal/schema"
)

// topValues is the number of most frequent values kept per column. A column
// with more distinct values in the sample is not profiled.
const topValues = 20

// Sample builds a distribution profile from a block sample of every table:
// for each low-cardinality text or enum column, its most frequent values
// weighted by how often they occur.
func (p *Adapter) Sample(ctx context.Context, s *schema.Schema, percent float64) (profile.Profile, error) {
	if percent <= 0 || percent > 100 {
		return nil, errors.WithStack(&errors.ConfigError{Field: "sample_percent", Reason: "must be in (0, 100]"})
	}
	out := make(profile.Profile)
	for i := range s.Tables {
		t := &s.Tables[i]
		for _, col := range sampledColumns(t) {
			entries, err := p.sampleColumn(ctx, t.Name, col, percent)
			if err != nil {
				return nil, err
			}
			if len(entries) == 0 || len(entries) > topValues {
				continue
			}
			out[profile.Key(t.Name, col)] = entries
		}
	}
	logger.Logger.Debugw("distribution profile sampled", "columns", len(out), "percent", percent)
	return out, nil
}

func (p *Adapter) sampleColumn(ctx context.Context, table, column string, percent float64) ([]profile.Entry, error) {
	sample := fmt.Sprintf("(SELECT %s::text AS v FROM %s TABLESAMPLE SYSTEM (%g)) AS s",
		pgx.Identifier{column}.Sanitize(), p.qualified(table), percent)
	query, args, err := p.qb.
		Select("v", "count(*)").
		From(sample).
		Where("v IS NOT NULL").
		GroupBy("v").
		OrderBy("count(*) DESC", "v").
		Limit(topValues + 1).
		ToSql()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build sample query for %s.%s", table, column)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to sample %s.%s", table, column)
	}
	defer rows.Close()

	var entries []profile.Entry
	for rows.Next() {
		var value string
		var count int64
		if err := rows.Scan(&value, &count); err != nil {
			return nil, errors.Wrapf(err, "failed to scan sample of %s.%s", table, column)
		}
		entries = append(entries, profile.Entry{Value: value, Weight: float64(count)})
	}
	return entries, rows.Err()
}

// sampledColumns lists the columns worth profiling: free text and enums
// that are neither keys nor references.
func sampledColumns(t *schema.Table) []string {
	var cols []string
	for _, c := range t.Columns {
		if c.PrimaryKey || c.Unique {
			continue
		}
		if _, _, isFK := t.ForeignKeyFor(c.Name); isFK {
			continue
		}
		if c.Type == schema.TypeText || c.Type == schema.TypeEnum {
			cols = append(cols, c.Name)
		}
	}
	return cols
}
