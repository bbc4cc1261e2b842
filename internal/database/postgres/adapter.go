// Package postgres is the live-database side of a run: it introspects a
// PostgreSQL schema into the engine's model, samples value distributions
// from the source tables and executes a generated dataset.
package postgres

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rana718/synthdb/internal/errors"
)

type Adapter struct {
	pool *pgxpool.Pool
	qb   squirrel.StatementBuilderType
	// schema is the namespace introspected and written to.
	schema string
}

func New(schemaName string) *Adapter {
	if schemaName == "" {
		schemaName = "public"
	}
	return &Adapter{
		qb:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		schema: schemaName,
	}
}

func (p *Adapter) Connect(ctx context.Context, url string) error {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return errors.Wrap(err, "failed to parse connection URL")
	}

	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	config.MaxConns = 4
	config.MinConns = 0
	config.MaxConnLifetime = 15 * time.Minute
	config.MaxConnIdleTime = 3 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return errors.Wrap(err, "failed to create connection pool")
	}

	p.pool = pool
	return nil
}

func (p *Adapter) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *Adapter) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Schema returns the namespace the adapter works in.
func (p *Adapter) Schema() string {
	return p.schema
}

// qualified renders a schema-qualified, quoted table name.
func (p *Adapter) qualified(table string) string {
	return pgx.Identifier{p.schema, table}.Sanitize()
}
