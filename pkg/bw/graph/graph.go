// Package graph assembles BW repository structures into typed object
// graphs: DTP lineage, query component graphs and whole-infoarea exports,
// with reduction for high-fanout nodes and Mermaid rendering.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/erpl/erpl-adt/pkg/bw"
)

// Reserved edge types.
const (
	EdgeDTPSource       = "dtp_source"
	EdgeDTPTarget       = "dtp_target"
	EdgeTRFNSource      = "trfn_source"
	EdgeTRFNTarget      = "trfn_target"
	EdgeFieldMapping    = "field_mapping"
	EdgeFieldDerivation = "field_derivation"
	EdgeFieldOrigin     = "field_origin"
	EdgeXref            = "xref"
	EdgeUpstreamLineage = "upstream_lineage"
	EdgeUpstreamBridge  = "upstream_bridge"
)

// Node is one vertex of a BW graph.
type Node struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Name       string            `json:"name"`
	Role       string            `json:"role,omitempty"`
	URI        string            `json:"uri,omitempty"`
	Version    string            `json:"version,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Edge is one directed edge of a BW graph. The role, when meaningful,
// lives in Attributes["role"].
type Edge struct {
	ID         string            `json:"id"`
	From       string            `json:"from"`
	To         string            `json:"to"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func (e Edge) role() string {
	return e.Attributes["role"]
}

// Graph is a BW object graph. Node IDs are unique and every edge endpoint
// resolves to a present node.
type Graph struct {
	SchemaVersion string               `json:"schema_version,omitempty"`
	RootType      string               `json:"root_type,omitempty"`
	RootName      string               `json:"root_name,omitempty"`
	RootNodeID    string               `json:"root_node_id,omitempty"`
	Nodes         []Node               `json:"nodes"`
	Edges         []Edge               `json:"edges"`
	Warnings      []string             `json:"warnings,omitempty"`
	Provenance    []bw.ProvenanceEntry `json:"provenance,omitempty"`

	nodeIndex map[string]int
	edgeKeys  map[string]bool
	edgeSeq   int
}

// NewGraph builds an empty graph rooted at the given object.
func NewGraph(rootType, rootName string) *Graph {
	return &Graph{
		RootType:  rootType,
		RootName:  rootName,
		nodeIndex: map[string]int{},
		edgeKeys:  map[string]bool{},
	}
}

// SanitizeID replaces every character outside [A-Za-z0-9_-] with an
// underscore.
func SanitizeID(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// NodeID derives the canonical node id N_<TYPE>_<SANITIZED_NAME>.
func NodeID(objectType, name string) string {
	return "N_" + SanitizeID(strings.ToUpper(objectType)) + "_" + SanitizeID(strings.ToUpper(name))
}

// HasNode reports whether id is present.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodeIndex[id]
	return ok
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) *Node {
	if idx, ok := g.nodeIndex[id]; ok {
		return &g.Nodes[idx]
	}
	return nil
}

// AddNode inserts n unless a node with the same id already exists.
// Reports whether the node was added.
func (g *Graph) AddNode(n Node) bool {
	if n.ID == "" {
		n.ID = NodeID(n.Type, n.Name)
	}
	if g.HasNode(n.ID) {
		return false
	}
	g.nodeIndex[n.ID] = len(g.Nodes)
	g.Nodes = append(g.Nodes, n)
	return true
}

func edgeKey(from, to, edgeType, role string) string {
	return from + "\x00" + to + "\x00" + edgeType + "\x00" + role
}

// AddEdge inserts a directed edge. Edges with a missing endpoint, a
// self-loop, or a duplicate (from, to, type, role) key are skipped.
// Reports whether the edge was added.
func (g *Graph) AddEdge(from, to, edgeType string, attrs map[string]string) bool {
	if from == to || !g.HasNode(from) || !g.HasNode(to) {
		return false
	}
	key := edgeKey(from, to, edgeType, attrs["role"])
	if g.edgeKeys[key] {
		return false
	}
	g.edgeKeys[key] = true
	g.edgeSeq++
	g.Edges = append(g.Edges, Edge{
		ID:         fmt.Sprintf("E%d", g.edgeSeq),
		From:       from,
		To:         to,
		Type:       edgeType,
		Attributes: attrs,
	})
	return true
}

// Warn appends a warning message.
func (g *Graph) Warn(format string, args ...any) {
	g.Warnings = append(g.Warnings, fmt.Sprintf(format, args...))
}

// removeNodes drops the given node ids and every edge touching them,
// reindexing the graph.
func (g *Graph) removeNodes(ids map[string]bool) {
	var nodes []Node
	for _, n := range g.Nodes {
		if !ids[n.ID] {
			nodes = append(nodes, n)
		}
	}
	g.Nodes = nodes
	g.nodeIndex = map[string]int{}
	for i, n := range g.Nodes {
		g.nodeIndex[n.ID] = i
	}
	var edges []Edge
	g.edgeKeys = map[string]bool{}
	for _, e := range g.Edges {
		if ids[e.From] || ids[e.To] {
			continue
		}
		g.edgeKeys[edgeKey(e.From, e.To, e.Type, e.role())] = true
		edges = append(edges, e)
	}
	g.Edges = edges
}

// OutDegree returns the out-degree of the node with the given id.
func (g *Graph) OutDegree(id string) int {
	n := 0
	for _, e := range g.Edges {
		if e.From == id {
			n++
		}
	}
	return n
}

// Ergonomics flags reported by Metrics.
const (
	FlagOK                = "ok"
	FlagVeryLargeGraph    = "very_large_graph"
	FlagHighFanout        = "high_fanout"
	FlagSummaryNodes      = "summary_nodes_present"
	veryLargeGraphNodes   = 120
	highFanoutThreshold   = 20
	summaryNodeTypeName   = "SUMMARY"
	summaryCountAttribute = "summary_count"
)

// Metrics summarizes graph size and shape.
type Metrics struct {
	NodeCount    int      `json:"node_count"`
	EdgeCount    int      `json:"edge_count"`
	MaxOutDegree int      `json:"max_out_degree"`
	SummaryNodes int      `json:"summary_nodes"`
	Flags        []string `json:"flags"`
}

// Metrics computes the graph metrics and ergonomics flags.
func (g *Graph) Metrics() Metrics {
	m := Metrics{NodeCount: len(g.Nodes), EdgeCount: len(g.Edges)}
	degrees := map[string]int{}
	for _, e := range g.Edges {
		degrees[e.From]++
	}
	for _, d := range degrees {
		if d > m.MaxOutDegree {
			m.MaxOutDegree = d
		}
	}
	for _, n := range g.Nodes {
		if n.Type == summaryNodeTypeName {
			m.SummaryNodes++
		}
	}
	if m.NodeCount > veryLargeGraphNodes {
		m.Flags = append(m.Flags, FlagVeryLargeGraph)
	}
	if m.MaxOutDegree > highFanoutThreshold {
		m.Flags = append(m.Flags, FlagHighFanout)
	}
	if m.SummaryNodes > 0 {
		m.Flags = append(m.Flags, FlagSummaryNodes)
	}
	if len(m.Flags) == 0 {
		m.Flags = []string{FlagOK}
	}
	return m
}

// sortedNodeIDs returns the ids of nodes matching keep, ascending.
func (g *Graph) sortedNodeIDs(keep func(Node) bool) []string {
	var ids []string
	for _, n := range g.Nodes {
		if keep(n) {
			ids = append(ids, n.ID)
		}
	}
	sort.Strings(ids)
	return ids
}
