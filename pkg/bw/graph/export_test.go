package graph

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erpl/erpl-adt/pkg/bw"
)

// exportFixture wires a small area: ZFIN contains a semantical folder
// with an ADSO and an RSDS, plus a DTP connecting them.
func exportFixture(t *testing.T) *fakeModeler {
	t.Helper()
	return &fakeModeler{
		nodes: func(objectType, objectName string, opts bw.NodeOptions) ([]bw.Node, error) {
			switch {
			case opts.EndpointOverride == "/sap/bw/modeling/folder/zstaging":
				return []bw.Node{
					{Name: "ZSALES", Type: "ADSO", URI: "/sap/bw/modeling/adso/zsales/a", Description: "Sales"},
					{Name: "ZDS_SRC", Type: "RSDS", URI: "/sap/bw/modeling/rsds/zds_src/s4clnt100/a"},
				}, nil
			case objectName == "ZFIN":
				return []bw.Node{
					{Name: "STAGING", Type: "semanticalFolder", URI: "/sap/bw/modeling/folder/zstaging"},
					{Name: "ZDTP_SALES", Type: "DTPA"},
				}, nil
			default:
				return nil, errors.New("unexpected structure request: " + objectName)
			}
		},
		adso: func(name string) (*bw.ADSODetail, error) {
			return &bw.ADSODetail{Name: name, Fields: []bw.FieldInfo{{Name: "MATNR"}}}, nil
		},
		rsds: func(name, sourceSystem string) (*bw.RSDSDetail, error) {
			assert.Equal(t, "S4CLNT100", sourceSystem)
			return &bw.RSDSDetail{Name: name, SourceSystem: sourceSystem}, nil
		},
		dtp: func(name string) (*bw.DTPDetail, error) {
			return &bw.DTPDetail{
				Name:   name,
				Source: bw.ObjectPointer{Type: "RSDS", Name: "ZDS_SRC", SourceSystem: "S4CLNT100"},
				Target: bw.ObjectPointer{Type: "ADSO", Name: "ZSALES"},
			}, nil
		},
	}
}

func TestExportInfoareaWalk(t *testing.T) {
	t.Parallel()

	export, err := ExportInfoarea(context.Background(), exportFixture(t), "zfin", ExportOptions{})
	require.NoError(t, err)

	assert.Equal(t, "1.0", export.SchemaVersion)
	assert.Equal(t, "bw.infoarea.export", export.Contract)
	assert.Equal(t, "ZFIN", export.Infoarea)
	assert.NotEmpty(t, export.ExportedAt)

	byName := map[string]ExportedObject{}
	for _, obj := range export.Objects {
		byName[obj.Name] = obj
	}
	require.Len(t, export.Objects, 3)

	// Per-type detail got attached.
	require.NotNil(t, byName["ZSALES"].ADSO)
	assert.Equal(t, "MATNR", byName["ZSALES"].ADSO.Fields[0].Name)
	require.NotNil(t, byName["ZDS_SRC"].RSDS)
	assert.Equal(t, "S4CLNT100", byName["ZDS_SRC"].RSDS.SourceSystem)
	require.NotNil(t, byName["ZDTP_SALES"].DTP)

	assert.Empty(t, export.Warnings)
	assert.NotEmpty(t, export.Provenance)
	for _, p := range export.Provenance {
		assert.Equal(t, "ok", p.Status)
	}
}

func TestExportInfoareaTypesFilter(t *testing.T) {
	t.Parallel()

	export, err := ExportInfoarea(context.Background(), exportFixture(t), "ZFIN", ExportOptions{
		TypesFilter: []string{"ADSO"},
	})
	require.NoError(t, err)
	require.Len(t, export.Objects, 1)
	assert.Equal(t, "ZSALES", export.Objects[0].Name)
}

func TestExportInfoareaMaxDepthStopsDescent(t *testing.T) {
	t.Parallel()

	export, err := ExportInfoarea(context.Background(), exportFixture(t), "ZFIN", ExportOptions{
		MaxDepth: 1,
	})
	require.NoError(t, err)

	// The semantical folder stays unexpanded, so only the DTP surfaces.
	require.Len(t, export.Objects, 1)
	assert.Equal(t, "ZDTP_SALES", export.Objects[0].Name)
}

func TestExportInfoareaDetailFailureIsWarning(t *testing.T) {
	t.Parallel()

	m := exportFixture(t)
	m.adso = func(string) (*bw.ADSODetail, error) { return nil, errors.New("adso read failed") }

	export, err := ExportInfoarea(context.Background(), m, "ZFIN", ExportOptions{})
	require.NoError(t, err)
	require.Len(t, export.Warnings, 1)
	assert.Contains(t, export.Warnings[0], "adso read failed")
	// The object itself stays in the export.
	found := false
	for _, obj := range export.Objects {
		if obj.Name == "ZSALES" {
			found = true
			assert.Nil(t, obj.ADSO)
		}
	}
	assert.True(t, found)
}

func TestExportInfoareaSearchSupplement(t *testing.T) {
	t.Parallel()

	m := exportFixture(t)
	m.search = func(query string, opts bw.SearchOptions) ([]bw.SearchHit, error) {
		assert.Equal(t, "ZFIN", query)
		return []bw.SearchHit{
			{Name: "ZQ_SALES", Type: "ELEM", Description: "Sales query"},
			{Name: "0MATERIAL", Type: "IOBJ"},
			// Already present, must not duplicate.
			{Name: "ZSALES", Type: "ELEM"},
			// Infoprovider types are excluded from the supplement.
			{Name: "ZCUBE_OTHER", Type: "CUBE"},
		}, nil
	}

	export, err := ExportInfoarea(context.Background(), m, "ZFIN", ExportOptions{
		IncludeSearchSupplement: true,
	})
	require.NoError(t, err)

	names := map[string]bool{}
	for _, obj := range export.Objects {
		names[obj.Name] = true
	}
	assert.True(t, names["ZQ_SALES"])
	assert.True(t, names["0MATERIAL"])
	assert.False(t, names["ZCUBE_OTHER"])
	assert.Len(t, export.Objects, 5)
}

func TestExportInfoareaXrefAndElemEdges(t *testing.T) {
	t.Parallel()

	m := exportFixture(t)
	m.search = func(string, bw.SearchOptions) ([]bw.SearchHit, error) {
		return []bw.SearchHit{{Name: "ZQ_SALES", Type: "ELEM"}}, nil
	}
	m.xref = func(objectType, objectName string) ([]bw.XrefEntry, error) {
		if objectName == "ZSALES" {
			return []bw.XrefEntry{{Name: "ZCUBE1", Type: "CUBE"}}, nil
		}
		return nil, nil
	}
	m.query = func(compType bw.ComponentType, name string) (*bw.QueryComponent, error) {
		return &bw.QueryComponent{
			ComponentType: "QUERY", Name: name, InfoProvider: "ZSALES",
			Refs: []bw.ComponentRef{{Type: "IOBJ", Role: "rows", Name: "0CALYEAR"}},
		}, nil
	}

	export, err := ExportInfoarea(context.Background(), m, "ZFIN", ExportOptions{
		IncludeSearchSupplement:  true,
		IncludeXrefEdges:         true,
		IncludeElemProviderEdges: true,
	})
	require.NoError(t, err)

	edgeTypes := map[string]int{}
	for _, e := range export.DataflowEdges {
		edgeTypes[e.Type]++
	}
	assert.Equal(t, 1, edgeTypes[EdgeXref])
	assert.Equal(t, 1, edgeTypes["elem-provider"])

	// The xref consumer was admitted as an object.
	names := map[string]bool{}
	for _, obj := range export.Objects {
		names[obj.Name] = true
	}
	assert.True(t, names["ZCUBE1"])

	// The ELEM picked up its iobj refs.
	for _, obj := range export.Objects {
		if obj.Name == "ZQ_SALES" {
			require.Len(t, obj.IobjRefs, 1)
			assert.Equal(t, "0CALYEAR", obj.IobjRefs[0].Name)
		}
	}
}

func TestExportInfoareaEmbeddedLineage(t *testing.T) {
	t.Parallel()

	m := exportFixture(t)
	m.search = func(query string, opts bw.SearchOptions) ([]bw.SearchHit, error) {
		if len(opts.Types) == 1 && opts.Types[0] == "TRFN" {
			return nil, nil
		}
		return nil, nil
	}

	export, err := ExportInfoarea(context.Background(), m, "ZFIN", ExportOptions{
		IncludeLineage: true,
	})
	require.NoError(t, err)

	var dtpObj *ExportedObject
	for i := range export.Objects {
		if export.Objects[i].Name == "ZDTP_SALES" {
			dtpObj = &export.Objects[i]
		}
	}
	require.NotNil(t, dtpObj)
	require.NotNil(t, dtpObj.Lineage)
	assert.True(t, dtpObj.Lineage.HasNode("N_DTPA_ZDTP_SALES"))

	// Lineage folded into the global dataflow graph.
	flowIDs := map[string]bool{}
	for _, n := range export.DataflowNodes {
		flowIDs[n.ID] = true
	}
	assert.True(t, flowIDs["N_DTPA_ZDTP_SALES"])
	assert.True(t, flowIDs["N_RSDS_ZDS_SRC"])

	// Lineage provenance surfaces under the lineage: prefix.
	foundPrefixed := false
	for _, p := range export.Provenance {
		if strings.HasPrefix(p.Operation, "lineage:") {
			foundPrefixed = true
		}
	}
	assert.True(t, foundPrefixed)
}
