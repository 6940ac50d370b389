package graph

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNodeDeduplicates(t *testing.T) {
	t.Parallel()

	g := NewGraph("AREA", "ZFIN")
	assert.True(t, g.AddNode(Node{ID: "N_ADSO_Z1", Type: "ADSO", Name: "Z1"}))
	assert.False(t, g.AddNode(Node{ID: "N_ADSO_Z1", Type: "ADSO", Name: "Z1"}))
	assert.Len(t, g.Nodes, 1)
}

func TestAddEdgeInvariants(t *testing.T) {
	t.Parallel()

	g := NewGraph("AREA", "ZFIN")
	g.AddNode(Node{ID: "A", Type: "ADSO", Name: "A"})
	g.AddNode(Node{ID: "B", Type: "ADSO", Name: "B"})

	assert.True(t, g.AddEdge("A", "B", EdgeXref, nil))
	// Duplicate (from, to, type, role).
	assert.False(t, g.AddEdge("A", "B", EdgeXref, nil))
	// Self-loop.
	assert.False(t, g.AddEdge("A", "A", EdgeXref, nil))
	// Dangling endpoint.
	assert.False(t, g.AddEdge("A", "MISSING", EdgeXref, nil))

	require.Len(t, g.Edges, 1)
	assert.Equal(t, "E1", g.Edges[0].ID)
}

func TestNodeIDSanitizes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "N_QUERY_ZQ_SALES_01", NodeID("QUERY", "zq sales/01"))
}

func TestReduceFocusRole(t *testing.T) {
	t.Parallel()

	g := NewGraph("QUERY", "ZQ1")
	g.SchemaVersion = "1.0"
	g.AddNode(Node{ID: "N_QUERY_ZQ1", Type: "QUERY", Name: "ZQ1", Role: "root"})
	g.RootNodeID = "N_QUERY_ZQ1"
	for _, name := range []string{"A", "B", "C"} {
		g.AddNode(Node{ID: "N_VARIABLE_" + name, Type: "VARIABLE", Name: name, Role: "filter"})
		g.AddEdge("N_QUERY_ZQ1", "N_VARIABLE_"+name, "reference", map[string]string{"role": "filter"})
	}
	g.AddNode(Node{ID: "N_CKF_COL", Type: "CKF", Name: "COL", Role: "columns"})
	g.AddEdge("N_QUERY_ZQ1", "N_CKF_COL", "reference", map[string]string{"role": "columns"})

	Reduce(g, "filter", 1)

	require.True(t, g.HasNode("N_VARIABLE_A"))
	assert.False(t, g.HasNode("N_VARIABLE_B"))
	assert.False(t, g.HasNode("N_VARIABLE_C"))
	require.True(t, g.HasNode("N_CKF_COL"))

	summary := g.Node("S_FILTER_MORE")
	require.NotNil(t, summary)
	assert.Equal(t, "2", summary.Attributes["summary_count"])
	assert.Equal(t, "filter", summary.Role)

	// Root keeps edges to the survivor, the column child and exactly one
	// redirected edge onto the summary.
	var toSummary int
	for _, e := range g.Edges {
		assert.True(t, g.HasNode(e.From), e.ID)
		assert.True(t, g.HasNode(e.To), e.ID)
		if e.To == "S_FILTER_MORE" {
			toSummary++
			assert.Equal(t, "N_QUERY_ZQ1", e.From)
		}
	}
	assert.Equal(t, 1, toSummary)

	// At most one non-summary filter node remains.
	filters := 0
	for _, n := range g.Nodes {
		if n.Role == "filter" && n.Type != "SUMMARY" {
			filters++
		}
	}
	assert.Equal(t, 1, filters)
}

func TestReduceSummaryIDCollision(t *testing.T) {
	t.Parallel()

	g := NewGraph("QUERY", "ZQ1")
	g.AddNode(Node{ID: "S_FILTER_MORE", Type: "VARIABLE", Name: "ODD", Role: "other"})
	g.AddNode(Node{ID: "N_QUERY_ZQ1", Type: "QUERY", Name: "ZQ1", Role: "root"})
	for _, name := range []string{"A", "B"} {
		g.AddNode(Node{ID: "N_VARIABLE_" + name, Type: "VARIABLE", Name: name, Role: "filter"})
		g.AddEdge("N_QUERY_ZQ1", "N_VARIABLE_"+name, "reference", map[string]string{"role": "filter"})
	}

	Reduce(g, "filter", 1)
	assert.True(t, g.HasNode("S_FILTER_MORE_2"))
}

func TestMetricsFlags(t *testing.T) {
	t.Parallel()

	g := NewGraph("QUERY", "ZQ1")
	g.AddNode(Node{ID: "ROOT", Type: "QUERY", Name: "ZQ1"})
	m := g.Metrics()
	assert.Equal(t, []string{FlagOK}, m.Flags)

	for i := 0; i < 25; i++ {
		id := "N_IOBJ_X" + strconv.Itoa(i)
		g.AddNode(Node{ID: id, Type: "IOBJ", Name: "X"})
		g.AddEdge("ROOT", id, "reference", nil)
	}
	g.AddNode(Node{ID: "S_FILTER_MORE", Type: "SUMMARY", Name: "more", Role: "filter"})

	m = g.Metrics()
	assert.Contains(t, m.Flags, FlagHighFanout)
	assert.Contains(t, m.Flags, FlagSummaryNodes)
	assert.NotContains(t, m.Flags, FlagOK)
	assert.Equal(t, 25, m.MaxOutDegree)
}
