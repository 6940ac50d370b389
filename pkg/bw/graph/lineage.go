package graph

import (
	"context"
	"strings"

	"github.com/erpl/erpl-adt/pkg/bw"
	"github.com/erpl/erpl-adt/pkg/logger"
)

// Modeler is the slice of the BW client the assemblers need. Tests
// substitute a fake; *bw.Client satisfies it.
type Modeler interface {
	GetNodes(ctx context.Context, objectType, objectName string, opts bw.NodeOptions) ([]bw.Node, error)
	Search(ctx context.Context, query string, opts bw.SearchOptions) ([]bw.SearchHit, error)
	GetADSO(ctx context.Context, name, version string) (*bw.ADSODetail, error)
	GetRSDS(ctx context.Context, name, sourceSystem, version string) (*bw.RSDSDetail, error)
	GetDTP(ctx context.Context, name, version string) (*bw.DTPDetail, error)
	GetTRFN(ctx context.Context, name, version string) (*bw.TRFNDetail, error)
	GetQueryComponent(ctx context.Context, compType bw.ComponentType, name, version string) (*bw.QueryComponent, error)
	Xref(ctx context.Context, objectType, objectName string) ([]bw.XrefEntry, error)
	SetRecorder(r bw.Recorder)
}

// LineageOptions tunes the DTP lineage walk.
type LineageOptions struct {
	// Version of the objects to read; defaults to the active version.
	Version string
	// IncludeXref adds consumer edges for the target infoprovider.
	// Disabled during batch export to cap latency.
	IncludeXref bool
	// TRFNName pins the transformation; when empty it is resolved via
	// BW search over the DTP target.
	TRFNName string
}

// fieldNodeID builds the id of a field node scoped to its owning object.
func fieldNodeID(ownerID, field string) string {
	return ownerID + "_F_" + SanitizeID(strings.ToUpper(field))
}

func addFieldNode(g *Graph, ownerID, field string) string {
	id := fieldNodeID(ownerID, field)
	g.AddNode(Node{
		ID:         id,
		Type:       "FIELD",
		Name:       strings.ToUpper(field),
		Attributes: map[string]string{"owner": ownerID},
	})
	return id
}

// BuildDTPLineage walks a data transfer process into a lineage graph:
// source and target objects, the connecting transformation with its
// field-level rules, DataSource field origins and optional xref
// consumers. Per-object failures become warnings, not errors.
func BuildDTPLineage(ctx context.Context, m Modeler, dtpName string, opts LineageOptions) (*Graph, error) {
	log := &bw.ProvenanceLog{}
	m.SetRecorder(log)
	defer m.SetRecorder(nil)

	g := NewGraph("DTPA", strings.ToUpper(dtpName))
	defer func() { g.Provenance = log.Entries }()

	dtp, err := m.GetDTP(ctx, dtpName, opts.Version)
	if err != nil {
		return nil, err
	}

	dtpID := NodeID("DTPA", dtp.Name)
	g.AddNode(Node{ID: dtpID, Type: "DTPA", Name: dtp.Name, Attributes: map[string]string{
		"description": dtp.Description,
	}})

	var sourceID, targetID string
	if dtp.Source.Name != "" {
		sourceID = NodeID(dtp.Source.Type, dtp.Source.Name)
		attrs := map[string]string{}
		if dtp.Source.SourceSystem != "" {
			attrs["source_system"] = dtp.Source.SourceSystem
		}
		g.AddNode(Node{ID: sourceID, Type: dtp.Source.Type, Name: dtp.Source.Name, Attributes: attrs})
		g.AddEdge(sourceID, dtpID, EdgeDTPSource, nil)
	}
	if dtp.Target.Name != "" {
		targetID = NodeID(dtp.Target.Type, dtp.Target.Name)
		g.AddNode(Node{ID: targetID, Type: dtp.Target.Type, Name: dtp.Target.Name})
		g.AddEdge(dtpID, targetID, EdgeDTPTarget, nil)
	}

	if trfn := resolveTRFN(ctx, m, g, dtp, opts); trfn != nil {
		addTransformation(g, trfn, sourceID, targetID)
	}

	if strings.EqualFold(dtp.Source.Type, "RSDS") && sourceID != "" {
		rsds, err := m.GetRSDS(ctx, dtp.Source.Name, dtp.Source.SourceSystem, opts.Version)
		if err != nil {
			g.Warn("DataSource %s: %v", dtp.Source.Name, err)
		} else {
			for _, f := range rsds.Fields {
				fid := addFieldNode(g, sourceID, f.Name)
				g.AddEdge(sourceID, fid, EdgeFieldOrigin, nil)
			}
		}
	}

	if opts.IncludeXref && targetID != "" {
		entries, err := m.Xref(ctx, dtp.Target.Type, dtp.Target.Name)
		if err != nil {
			g.Warn("xref %s: %v", dtp.Target.Name, err)
		} else {
			for _, x := range entries {
				xid := NodeID(x.Type, x.Name)
				g.AddNode(Node{ID: xid, Type: x.Type, Name: x.Name, Attributes: map[string]string{
					"description": x.Description,
				}})
				g.AddEdge(targetID, xid, EdgeXref, nil)
			}
		}
	}

	logger.Debugf("lineage for DTP %s: %d nodes, %d edges, %d warnings",
		dtp.Name, len(g.Nodes), len(g.Edges), len(g.Warnings))
	return g, nil
}

// resolveTRFN finds the transformation connecting the DTP endpoints,
// either pinned by name or via BW search over the target.
func resolveTRFN(ctx context.Context, m Modeler, g *Graph, dtp *bw.DTPDetail, opts LineageOptions) *bw.TRFNDetail {
	name := opts.TRFNName
	if name == "" {
		if dtp.Target.Name == "" {
			return nil
		}
		hits, err := m.Search(ctx, dtp.Target.Name, bw.SearchOptions{Types: []string{"TRFN"}, MaxResults: 1})
		if err != nil {
			g.Warn("transformation lookup for %s: %v", dtp.Target.Name, err)
			return nil
		}
		if len(hits) == 0 {
			g.Warn("no transformation found for target %s", dtp.Target.Name)
			return nil
		}
		name = hits[0].Name
	}
	trfn, err := m.GetTRFN(ctx, name, opts.Version)
	if err != nil {
		g.Warn("transformation %s: %v", name, err)
		return nil
	}
	return trfn
}

// addTransformation adds the transformation node, its endpoint edges and
// the field-level rule edges.
func addTransformation(g *Graph, trfn *bw.TRFNDetail, sourceID, targetID string) {
	trfnID := NodeID("TRFN", trfn.Name)
	g.AddNode(Node{ID: trfnID, Type: "TRFN", Name: trfn.Name})
	if sourceID != "" {
		g.AddEdge(sourceID, trfnID, EdgeTRFNSource, nil)
	}
	if targetID != "" {
		g.AddEdge(trfnID, targetID, EdgeTRFNTarget, nil)
	}
	for _, rule := range trfn.Rules {
		switch {
		case len(rule.SourceFields) > 0 && len(rule.TargetFields) > 0:
			for _, src := range rule.SourceFields {
				srcID := addFieldNode(g, orFallback(sourceID, trfnID), src)
				for _, tgt := range rule.TargetFields {
					tgtID := addFieldNode(g, orFallback(targetID, trfnID), tgt)
					attrs := map[string]string{}
					if rule.RuleType != "" {
						attrs["rule_type"] = rule.RuleType
					}
					if rule.Formula != "" {
						attrs["formula"] = rule.Formula
					}
					g.AddEdge(srcID, tgtID, EdgeFieldMapping, attrs)
				}
			}
		case len(rule.TargetFields) > 0:
			for _, tgt := range rule.TargetFields {
				tgtID := addFieldNode(g, orFallback(targetID, trfnID), tgt)
				attrs := map[string]string{}
				if rule.Constant != "" {
					attrs["constant"] = rule.Constant
				}
				if rule.Formula != "" {
					attrs["formula"] = rule.Formula
				}
				g.AddEdge(trfnID, tgtID, EdgeFieldDerivation, attrs)
			}
		}
	}
}

func orFallback(id, fallback string) string {
	if id != "" {
		return id
	}
	return fallback
}
