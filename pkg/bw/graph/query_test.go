package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erpl/erpl-adt/pkg/bw"
)

func TestBuildQueryGraph(t *testing.T) {
	t.Parallel()

	components := map[string]*bw.QueryComponent{
		"ZQ_SALES": {
			ComponentType: "QUERY", Name: "ZQ_SALES", InfoProvider: "ZSALES",
			Refs: []bw.ComponentRef{
				{Type: "IOBJ", Role: "rows", Name: "0CALYEAR"},
				{Type: "CKF", Role: "columns", Name: "ZKF_REV"},
				{Type: "VARIABLE", Role: "filter", Name: "ZVAR_YEAR"},
			},
		},
		"ZKF_REV": {
			ComponentType: "CKF", Name: "ZKF_REV",
			Refs: []bw.ComponentRef{
				{Type: "IOBJ", Role: "member", Name: "0AMOUNT"},
				// Cycle back to the root; must not recurse again.
				{Type: "QUERY", Role: "subcomponent", Name: "ZQ_SALES"},
			},
		},
		"ZVAR_YEAR": {ComponentType: "VARIABLE", Name: "ZVAR_YEAR"},
	}

	calls := map[string]int{}
	m := &fakeModeler{
		query: func(compType bw.ComponentType, name string) (*bw.QueryComponent, error) {
			calls[name]++
			comp, ok := components[name]
			require.True(t, ok, name)
			return comp, nil
		},
	}

	g, err := BuildQueryGraph(context.Background(), m, "ZQ_SALES", QueryGraphOptions{})
	require.NoError(t, err)

	assert.Equal(t, "1.0", g.SchemaVersion)
	assert.Equal(t, "N_QUERY_ZQ_SALES", g.RootNodeID)
	assert.Equal(t, "root", g.Node("N_QUERY_ZQ_SALES").Role)
	assert.True(t, g.HasNode("N_PROVIDER_ZSALES"))
	assert.True(t, g.HasNode("N_IOBJ_0CALYEAR"))
	assert.True(t, g.HasNode("N_CKF_ZKF_REV"))
	assert.True(t, g.HasNode("N_IOBJ_0AMOUNT"))

	// Each component resolved exactly once despite the cycle.
	assert.Equal(t, 1, calls["ZQ_SALES"])
	assert.Equal(t, 1, calls["ZKF_REV"])
	assert.Equal(t, 1, calls["ZVAR_YEAR"])

	// The reference-less variable produced a warning.
	require.Len(t, g.Warnings, 1)
	assert.Contains(t, g.Warnings[0], "No references discovered")
	assert.Contains(t, g.Warnings[0], "ZVAR_YEAR")

	for _, e := range g.Edges {
		assert.True(t, g.HasNode(e.From), e.ID)
		assert.True(t, g.HasNode(e.To), e.ID)
	}
	assert.NotEmpty(t, g.Provenance)
}

func TestMergeUpstream(t *testing.T) {
	t.Parallel()

	query := NewGraph("QUERY", "ZQ_SALES")
	query.SchemaVersion = "1.0"
	query.AddNode(Node{ID: "N_QUERY_ZQ_SALES", Type: "QUERY", Name: "ZQ_SALES", Role: "root"})
	query.RootNodeID = "N_QUERY_ZQ_SALES"

	lineage := NewGraph("DTPA", "ZDTP_SALES")
	lineage.AddNode(Node{ID: "N_DTPA_ZDTP_SALES", Type: "DTPA", Name: "ZDTP_SALES"})
	lineage.AddNode(Node{ID: "N_RSDS_ZDS_SRC", Type: "RSDS", Name: "ZDS_SRC"})
	lineage.AddEdge("N_RSDS_ZDS_SRC", "N_DTPA_ZDTP_SALES", EdgeDTPSource, nil)
	lineage.Warnings = []string{"no transformation found for target ZSALES"}
	lineage.Provenance = []bw.ProvenanceEntry{{Operation: "GetDTP", Endpoint: "/dtpa/zdtp_sales", Status: "ok"}}

	MergeUpstream(query, lineage, "ZSALES")

	assert.True(t, query.HasNode("L_N_DTPA_ZDTP_SALES"))
	assert.True(t, query.HasNode("L_N_RSDS_ZDS_SRC"))
	assert.Equal(t, "upstream_lineage", query.Node("L_N_RSDS_ZDS_SRC").Role)
	assert.True(t, query.HasNode("N_PROVIDER_ZSALES"))

	var bridge, upstream int
	for _, e := range query.Edges {
		switch e.Type {
		case EdgeUpstreamBridge:
			bridge++
			assert.Equal(t, "N_PROVIDER_ZSALES", e.From)
			assert.Equal(t, "L_N_DTPA_ZDTP_SALES", e.To)
		case EdgeUpstreamLineage:
			upstream++
			assert.Equal(t, EdgeDTPSource, e.Attributes["original_type"])
		}
	}
	assert.Equal(t, 1, bridge)
	assert.Equal(t, 1, upstream)

	assert.Contains(t, query.Warnings, "no transformation found for target ZSALES")
	require.Len(t, query.Provenance, 1)
	assert.Equal(t, "lineage:GetDTP", query.Provenance[0].Operation)
	assert.Equal(t, "ok", query.Provenance[0].Status)
}

func TestMergeUpstreamWithoutProviderBridgesFromRoot(t *testing.T) {
	t.Parallel()

	query := NewGraph("QUERY", "ZQ1")
	query.AddNode(Node{ID: "N_QUERY_ZQ1", Type: "QUERY", Name: "ZQ1", Role: "root"})
	query.RootNodeID = "N_QUERY_ZQ1"

	lineage := NewGraph("DTPA", "ZDTP1")
	lineage.AddNode(Node{ID: "N_DTPA_ZDTP1", Type: "DTPA", Name: "ZDTP1"})

	MergeUpstream(query, lineage, "")

	found := false
	for _, e := range query.Edges {
		if e.Type == EdgeUpstreamBridge {
			found = true
			assert.Equal(t, "N_QUERY_ZQ1", e.From)
			assert.Equal(t, "L_N_DTPA_ZDTP1", e.To)
		}
	}
	assert.True(t, found)
}
