package seeder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rana718/synthdb/internal/errors"
	"github.com/Rana718/synthdb/internal/schema"
)

func order(t *testing.T, snapshot string) (*InsertionOrder, *schema.Graph, error) {
	t.Helper()
	g := schema.BuildGraph(mustSchema(t, snapshot))
	o, err := NewDependencyGraph(g).BuildInsertionOrder()
	return o, g, err
}

func TestInsertionOrderLevels(t *testing.T) {
	o, g, err := order(t, `
tables:
  - name: line
    columns:
      - {name: id, type: integer, primary_key: true}
      - {name: order_id, type: integer, references: orders.id}
      - {name: product_id, type: integer, references: product.id}
  - name: orders
    columns:
      - {name: id, type: integer, primary_key: true}
      - {name: customer_id, type: integer, references: customer.id}
  - name: product
    columns:
      - {name: id, type: integer, primary_key: true}
  - name: customer
    columns:
      - {name: id, type: integer, primary_key: true}
      - {name: last_order_id, type: integer, nullable: true, references: orders.id}
`)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"product", "customer"}, {"orders"}, {"line"}}, o.LevelNames(g))
	assert.Equal(t, []string{"product", "customer", "orders", "line"}, o.Names(g))
	require.Len(t, o.Deferred, 1)
	assert.Equal(t, "customer", g.Name(o.Deferred[0].Child))
	assert.Equal(t, "orders", g.Name(o.Deferred[0].Parent))
}

func TestInsertionOrderParentsFirst(t *testing.T) {
	_, g, err := order(t, storeSnapshot)
	require.NoError(t, err)
	d := NewDependencyGraph(g)
	o, err := d.BuildInsertionOrder()
	require.NoError(t, err)
	assert.Same(t, o, d.GetOrder())

	pos := make(map[int]int)
	for i, n := range o.Tables {
		pos[n] = i
	}
	assert.Len(t, pos, g.Len())
	for _, e := range g.Edges {
		if e.Hard && !e.SelfLoop() {
			assert.Less(t, pos[e.Parent], pos[e.Child], "%s before %s", g.Name(e.Parent), g.Name(e.Child))
		}
	}
}

func TestCycleReportIgnoresDeclarationOrder(t *testing.T) {
	forward := `
tables:
  - name: x
    columns:
      - {name: id, type: integer, primary_key: true}
      - {name: y_id, type: integer, references: y.id}
  - name: y
    columns:
      - {name: id, type: integer, primary_key: true}
      - {name: z_id, type: integer, references: z.id}
  - name: z
    columns:
      - {name: id, type: integer, primary_key: true}
      - {name: x_id, type: integer, references: x.id}
  - name: free
    columns:
      - {name: id, type: integer, primary_key: true}
`
	reversed := `
tables:
  - name: free
    columns:
      - {name: id, type: integer, primary_key: true}
  - name: z
    columns:
      - {name: id, type: integer, primary_key: true}
      - {name: x_id, type: integer, references: x.id}
  - name: y
    columns:
      - {name: id, type: integer, primary_key: true}
      - {name: z_id, type: integer, references: z.id}
  - name: x
    columns:
      - {name: id, type: integer, primary_key: true}
      - {name: y_id, type: integer, references: y.id}
`
	for _, snapshot := range []string{forward, reversed} {
		_, _, err := order(t, snapshot)
		var cycle *errors.CycleError
		require.True(t, errors.As(err, &cycle))
		assert.Equal(t, []string{"x", "y", "z"}, cycle.Tables)
		assert.Equal(t, errors.ExitCycle, errors.ExitCode(err))
		assert.NotEmpty(t, errors.GetAllHints(err))
	}
}

func TestHardSelfReferenceIsCycle(t *testing.T) {
	_, _, err := order(t, `
tables:
  - name: node
    columns:
      - {name: id, type: integer, primary_key: true}
      - {name: parent_id, type: integer, references: node.id}
`)
	var cycle *errors.CycleError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, []string{"node"}, cycle.Tables)
}

func TestSoftSelfReferenceOrders(t *testing.T) {
	o, g, err := order(t, scenarioB)
	require.NoError(t, err)
	assert.Equal(t, []string{"employee"}, o.Names(g))
	require.Len(t, o.Deferred, 1)
	assert.True(t, o.Deferred[0].SelfLoop())
}
