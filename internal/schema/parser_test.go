package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rana718/synthdb/internal/errors"
)

const shopDDL = `
-- shop schema
CREATE TYPE public.tier AS ENUM ('free', 'pro', 'team');

CREATE TABLE public.customer (
    id integer NOT NULL,
    email character varying(120) NOT NULL,
    "displayName" text,
    tier public.tier DEFAULT 'free'::public.tier,
    referred_by integer REFERENCES customer,
    created_at timestamp with time zone DEFAULT now() NOT NULL
);

CREATE TABLE orders (
    id bigserial PRIMARY KEY,
    customer_id integer NOT NULL,
    total numeric(10,2) NOT NULL CHECK (total >= 0),
    status text NOT NULL DEFAULT 'new',
    note text, /* free text; may contain ; */
    CONSTRAINT orders_status_check CHECK (status IN ('new', 'paid', 'shipped')),
    UNIQUE (customer_id, note)
);

CREATE TABLE line (
    order_id bigint NOT NULL REFERENCES orders (id),
    position smallint NOT NULL,
    amount_cents integer GENERATED ALWAYS AS (position * 100) STORED,
    PRIMARY KEY (order_id, position)
);

ALTER TABLE ONLY public.customer ADD CONSTRAINT customer_pkey PRIMARY KEY (id);
ALTER TABLE ONLY public.orders
    ADD CONSTRAINT orders_customer_fk FOREIGN KEY (customer_id) REFERENCES public.customer(id);
ALTER TABLE public.line ADD COLUMN sku varchar(12);
CREATE UNIQUE INDEX customer_email_idx ON public.customer USING btree (lower(email));
CREATE INDEX orders_status_idx ON orders (status);
ALTER TABLE public.customer OWNER TO shop;
`

func TestParseDDL(t *testing.T) {
	s, err := ParseDDL(shopDDL)
	require.NoError(t, err)
	assert.Equal(t, []string{"customer", "orders", "line"}, s.TableNames())

	customer, _ := s.Table("customer")
	id, _ := customer.Column("id")
	assert.True(t, id.PrimaryKey)
	email, _ := customer.Column("email")
	assert.True(t, email.Unique)
	assert.Equal(t, 120, email.MaxLength)
	assert.False(t, email.Nullable)
	_, ok := customer.Column("displayName")
	assert.True(t, ok, "quoted identifiers keep their case")
	tier, _ := customer.Column("tier")
	assert.Equal(t, TypeEnum, tier.Type)
	assert.Equal(t, []string{"free", "pro", "team"}, tier.Values)
	assert.True(t, tier.HasDefault)
	created, _ := customer.Column("created_at")
	assert.Equal(t, TypeTemporal, created.Type)

	require.Len(t, customer.ForeignKeys, 1)
	assert.Equal(t, []string{"id"}, customer.ForeignKeys[0].RefColumns, "bare reference resolves to the primary key")
	assert.False(t, customer.IsHard(&customer.ForeignKeys[0]))

	orders, _ := s.Table("orders")
	oid, _ := orders.Column("id")
	assert.True(t, oid.PrimaryKey)
	assert.True(t, oid.HasDefault)
	total, _ := orders.Column("total")
	assert.Equal(t, 10, total.Precision)
	assert.Equal(t, 2, total.Scale)
	require.NotNil(t, total.Min)
	assert.Equal(t, 0.0, *total.Min)
	status, _ := orders.Column("status")
	assert.Equal(t, []string{"new", "paid", "shipped"}, status.Values)
	assert.Equal(t, [][]string{{"customer_id", "note"}}, orders.UniqueKeys)
	require.Len(t, orders.ForeignKeys, 1)
	assert.Equal(t, "orders_customer_fk", orders.ForeignKeys[0].Name)
	assert.True(t, orders.IsHard(&orders.ForeignKeys[0]))

	line, _ := s.Table("line")
	assert.Equal(t, []string{"order_id", "position", "sku"}, line.ColumnNames(), "computed columns are skipped")
	assert.Equal(t, []string{"order_id", "position"}, line.PrimaryKey())
	sku, _ := line.Column("sku")
	assert.Equal(t, 12, sku.MaxLength)
}

func TestParseDDLIdentity(t *testing.T) {
	s, err := ParseDDL(`
CREATE TABLE invoice (
    id integer GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    number bigint GENERATED BY DEFAULT AS IDENTITY,
    legacy_id integer DEFAULT nextval('invoice_legacy_seq'::regclass),
    code serial,
    note text DEFAULT 'none'
);`)
	require.NoError(t, err)
	invoice, _ := s.Table("invoice")

	want := map[string]Identity{
		"id":        IdentityAlways,
		"number":    IdentityByDefault,
		"legacy_id": Serial,
		"code":      Serial,
		"note":      NoIdentity,
	}
	for name, identity := range want {
		col, _ := invoice.Column(name)
		assert.Equal(t, identity, col.Identity, name)
	}
	assert.True(t, invoice.OverridesIdentity())
	assert.Equal(t, []string{"id", "number", "legacy_id", "code"}, invoice.SequenceColumns())
}

func TestSnapshotIdentity(t *testing.T) {
	s, err := ParseSnapshot([]byte(`
tables:
  - name: invoice
    columns:
      - {name: id, type: bigint, primary_key: true, identity: always}
`))
	require.NoError(t, err)
	invoice, _ := s.Table("invoice")
	id, _ := invoice.Column("id")
	assert.Equal(t, IdentityAlways, id.Identity)
	assert.True(t, id.HasDefault)

	_, err = ParseSnapshot([]byte(`
tables:
  - name: invoice
    columns:
      - {name: id, type: bigint, primary_key: true, identity: sometimes}
`))
	assert.Equal(t, errors.ExitSchema, errors.ExitCode(err))
}

func TestParseDDLErrors(t *testing.T) {
	_, err := ParseDDL(`CREATE TABLE place (id int PRIMARY KEY, shape geometry);`)
	var schemaErr *errors.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "shape", schemaErr.Column)

	_, err = ParseDDL(`CREATE TABLE span (a int, b int, CHECK (a < b));`)
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "span", schemaErr.Table)

	_, err = ParseDDL(`CREATE TABLE child (id int PRIMARY KEY, parent_id int NOT NULL REFERENCES parent (id));`)
	assert.Equal(t, errors.ExitSchema, errors.ExitCode(err))
}

func TestLoadSnapshotDDL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.sql")
	require.NoError(t, os.WriteFile(path, []byte(shopDDL), 0o644))
	s, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Len(t, s.Tables, 3)
}

func TestSplitType(t *testing.T) {
	cases := []struct {
		in, typ, rest string
	}{
		{"character varying(40) NOT NULL", "character varying(40)", "NOT NULL"},
		{"numeric(10, 2) DEFAULT 0", "numeric(10, 2)", "DEFAULT 0"},
		{"timestamp without time zone", "timestamp without time zone", ""},
		{"integer[] COLLATE x", "integer[]", "COLLATE x"},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			typ, rest := splitType(c.in)
			assert.Equal(t, c.typ, typ)
			assert.Equal(t, c.rest, rest)
		})
	}
}
