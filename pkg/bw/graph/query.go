package graph

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/erpl/erpl-adt/pkg/bw"
)

// querySchemaVersion is carried by every assembled query graph.
const querySchemaVersion = "1.0"

// QueryGraphOptions tunes the query graph assembly.
type QueryGraphOptions struct {
	// Version of the components to read; defaults to the active version.
	Version string
	// MaxDepth caps the recursive component resolution. Zero means the
	// default of 5.
	MaxDepth int
}

// BuildQueryGraph resolves a query and its referenced components into a
// graph. Components of the query family (QUERY, VARIABLE, RKF, CKF,
// FILTER, STRUCTURE) are resolved recursively, deduplicated by
// (type, name). Per-component failures become warnings.
func BuildQueryGraph(ctx context.Context, m Modeler, queryName string, opts QueryGraphOptions) (*Graph, error) {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 5
	}

	log := &bw.ProvenanceLog{}
	m.SetRecorder(log)
	defer m.SetRecorder(nil)

	g := NewGraph("QUERY", strings.ToUpper(queryName))
	g.SchemaVersion = querySchemaVersion
	defer func() { g.Provenance = log.Entries }()

	root, err := m.GetQueryComponent(ctx, bw.CompQuery, queryName, opts.Version)
	if err != nil {
		return nil, err
	}

	rootID := NodeID("QUERY", root.Name)
	g.AddNode(Node{ID: rootID, Type: "QUERY", Name: root.Name, Role: "root", Attributes: map[string]string{
		"description": root.Description,
	}})
	g.RootNodeID = rootID

	if root.InfoProvider != "" {
		providerID := "N_PROVIDER_" + SanitizeID(strings.ToUpper(root.InfoProvider))
		g.AddNode(Node{ID: providerID, Type: "PROVIDER", Name: strings.ToUpper(root.InfoProvider), Role: "provider"})
		g.AddEdge(rootID, providerID, "provider", map[string]string{"role": "provider"})
	}

	resolved := map[string]bool{componentKey("QUERY", root.Name): true}
	expandComponent(ctx, m, g, root, rootID, opts.Version, maxDepth, resolved)
	return g, nil
}

func componentKey(compType, name string) string {
	return strings.ToUpper(compType) + "\x00" + strings.ToUpper(name)
}

// expandComponent adds comp's references below ownerID and recurses into
// query-family components.
func expandComponent(ctx context.Context, m Modeler, g *Graph, comp *bw.QueryComponent, ownerID, version string, depth int, resolved map[string]bool) {
	if len(comp.Refs) == 0 {
		g.Warn("No references discovered: %s %s", comp.ComponentType, comp.Name)
		return
	}
	for _, ref := range comp.Refs {
		refID := NodeID(ref.Type, ref.Name)
		g.AddNode(Node{ID: refID, Type: strings.ToUpper(ref.Type), Name: strings.ToUpper(ref.Name), Role: ref.Role})
		g.AddEdge(ownerID, refID, "reference", map[string]string{"role": ref.Role})

		family, isFamily := bw.ComponentTypeFor(ref.Type)
		if !isFamily || depth <= 1 {
			continue
		}
		key := componentKey(ref.Type, ref.Name)
		if resolved[key] {
			continue
		}
		resolved[key] = true
		child, err := m.GetQueryComponent(ctx, family, ref.Name, version)
		if err != nil {
			g.Warn("component %s %s: %v", ref.Type, ref.Name, err)
			continue
		}
		expandComponent(ctx, m, g, child, refID, version, depth-1, resolved)
	}
}

// Reduce caps the number of nodes carrying focusRole at maxPerRole.
// Children are ordered by id; the overflow is collapsed onto a synthetic
// summary node that inherits the redirected edges. The input graph is
// modified in place and returned.
func Reduce(g *Graph, focusRole string, maxPerRole int) *Graph {
	if maxPerRole <= 0 {
		return g
	}
	ids := g.sortedNodeIDs(func(n Node) bool {
		return n.Role == focusRole && n.Type != summaryNodeTypeName
	})
	if len(ids) <= maxPerRole {
		return g
	}
	omitted := map[string]bool{}
	for _, id := range ids[maxPerRole:] {
		omitted[id] = true
	}

	summaryID := summaryNodeID(g, focusRole)
	g.AddNode(Node{
		ID:   summaryID,
		Type: summaryNodeTypeName,
		Name: fmt.Sprintf("%d more %s", len(omitted), focusRole),
		Role: focusRole,
		Attributes: map[string]string{
			summaryCountAttribute: strconv.Itoa(len(omitted)),
		},
	})

	// Rewire edges touching omitted nodes onto the summary, then drop
	// the omitted nodes. Self-loops vanish and duplicates collapse via
	// the (from, to, type, role) key inside AddEdge.
	edges := g.Edges
	g.Edges = nil
	g.edgeKeys = map[string]bool{}
	g.edgeSeq = 0
	for _, e := range edges {
		from, to := e.From, e.To
		if omitted[from] {
			from = summaryID
		}
		if omitted[to] {
			to = summaryID
		}
		g.AddEdge(from, to, e.Type, e.Attributes)
	}
	g.removeNodes(omitted)
	return g
}

// summaryNodeID picks S_<ROLE>_MORE, suffixing _2, _3, ... on collision.
func summaryNodeID(g *Graph, role string) string {
	base := "S_" + SanitizeID(strings.ToUpper(role)) + "_MORE"
	id := base
	for n := 2; g.HasNode(id); n++ {
		id = fmt.Sprintf("%s_%d", base, n)
	}
	return id
}

// MergeUpstream composes a lineage graph into a query graph. Lineage node
// ids get the prefix L_; every lineage edge becomes an upstream_lineage
// edge; a bridge edge connects the provider node (or the query root) to
// the lineage root. Lineage provenance entries are preserved with their
// operation prefixed "lineage:". The query graph is modified in place.
func MergeUpstream(query *Graph, lineage *Graph, infoProvider string) *Graph {
	if lineage == nil {
		return query
	}
	for _, n := range lineage.Nodes {
		merged := n
		merged.ID = "L_" + n.ID
		merged.Role = "upstream_lineage"
		query.AddNode(merged)
	}
	for _, e := range lineage.Edges {
		attrs := map[string]string{"original_type": e.Type}
		for k, v := range e.Attributes {
			attrs[k] = v
		}
		query.AddEdge("L_"+e.From, "L_"+e.To, EdgeUpstreamLineage, attrs)
	}

	bridgeFrom := query.RootNodeID
	if infoProvider != "" {
		providerID := "N_PROVIDER_" + SanitizeID(strings.ToUpper(infoProvider))
		query.AddNode(Node{ID: providerID, Type: "PROVIDER", Name: strings.ToUpper(infoProvider), Role: "provider"})
		bridgeFrom = providerID
	}
	lineageRoot := "L_" + NodeID(lineage.RootType, lineage.RootName)
	if bridgeFrom != "" && query.HasNode(lineageRoot) {
		query.AddEdge(bridgeFrom, lineageRoot, EdgeUpstreamBridge, nil)
	}

	query.Warnings = append(query.Warnings, lineage.Warnings...)
	for _, p := range lineage.Provenance {
		query.Provenance = append(query.Provenance, bw.ProvenanceEntry{
			Operation: "lineage:" + p.Operation,
			Endpoint:  p.Endpoint,
			Status:    p.Status,
		})
	}
	return query
}
