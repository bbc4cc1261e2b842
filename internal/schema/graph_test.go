package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGraph(t *testing.T) {
	s, err := ParseSnapshot([]byte(companySnapshot))
	require.NoError(t, err)

	g := BuildGraph(s)
	assert.Equal(t, 2, g.Len())
	require.Len(t, g.Edges, 2)

	company, ok := g.Index("company")
	require.True(t, ok)
	employee, _ := g.Index("employee")

	hard := g.Edges[0]
	assert.Equal(t, employee, hard.Child)
	assert.Equal(t, company, hard.Parent)
	assert.True(t, hard.Hard)
	assert.False(t, hard.SelfLoop())

	self := g.Edges[1]
	assert.False(t, self.Hard)
	assert.True(t, self.SelfLoop())

	assert.Len(t, g.Out(employee), 2)
	assert.Len(t, g.In(company), 1)
	assert.Len(t, g.In(employee), 1)
	assert.Equal(t, []int{company}, g.HardParents(employee))
	assert.Empty(t, g.HardParents(company))

	e, ok := g.EdgeFor(employee, 1)
	require.True(t, ok)
	assert.Equal(t, self, e)
	assert.Equal(t, "employee", g.Name(employee))
	assert.Equal(t, "employee", g.Table(employee).Name)
}
