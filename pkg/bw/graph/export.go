package graph

import (
	"context"
	"strings"
	"time"

	"github.com/erpl/erpl-adt/pkg/bw"
	"github.com/erpl/erpl-adt/pkg/logger"
)

// Export contract identifiers.
const (
	exportSchemaVersion = "1.0"
	exportContract      = "bw.infoarea.export"
)

// infoproviderTypes are the types whose xrefs are followed during export.
var infoproviderTypes = map[string]bool{
	"CUBE": true, "MPRO": true, "HCPR": true, "ADSO": true, "DSO": true,
}

// ExportedObject is one object of an infoarea export with its per-type
// detail.
type ExportedObject struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	URI         string `json:"uri,omitempty"`

	ADSO     *bw.ADSODetail     `json:"adso,omitempty"`
	RSDS     *bw.RSDSDetail     `json:"rsds,omitempty"`
	DTP      *bw.DTPDetail      `json:"dtp,omitempty"`
	TRFN     *bw.TRFNDetail     `json:"trfn,omitempty"`
	Query    *bw.QueryComponent `json:"query,omitempty"`
	IobjRefs []bw.ComponentRef  `json:"iobj_refs,omitempty"`
	Lineage  *Graph             `json:"lineage,omitempty"`
}

// InfoareaExport is the catalog document produced by ExportInfoarea.
type InfoareaExport struct {
	SchemaVersion string               `json:"schema_version"`
	Contract      string               `json:"contract"`
	Infoarea      string               `json:"infoarea"`
	ExportedAt    string               `json:"exported_at"`
	Objects       []ExportedObject     `json:"objects"`
	DataflowNodes []Node               `json:"dataflow_nodes"`
	DataflowEdges []Edge               `json:"dataflow_edges"`
	Warnings      []string             `json:"warnings,omitempty"`
	Provenance    []bw.ProvenanceEntry `json:"provenance,omitempty"`
}

// ExportOptions tunes the infoarea traversal.
type ExportOptions struct {
	// MaxDepth caps the container BFS. Zero means the default of 3.
	MaxDepth int
	// TypesFilter keeps only the listed object types. Empty keeps all.
	TypesFilter []string
	// IncludeSearchSupplement admits ELEM and IOBJ search hits missing
	// from the structure walk.
	IncludeSearchSupplement bool
	// IncludeXrefEdges follows infoprovider cross-references.
	IncludeXrefEdges bool
	// IncludeElemProviderEdges connects providers to their queries.
	IncludeElemProviderEdges bool
	// IncludeLineage embeds a lineage subgraph per DTP.
	IncludeLineage bool
	// Version of the objects to read; defaults to the active version.
	Version string
}

type frontierEntry struct {
	objectType string
	name       string
	uri        string
	depth      int
	override   string
}

// ExportInfoarea walks the repository structure below an infoarea
// breadth-first and assembles the catalog export. Per-object failures are
// recorded as warnings; only the initial structure read can fail hard.
func ExportInfoarea(ctx context.Context, m Modeler, infoarea string, opts ExportOptions) (*InfoareaExport, error) {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 3
	}
	typeFilter := map[string]bool{}
	for _, t := range opts.TypesFilter {
		typeFilter[strings.ToUpper(t)] = true
	}

	log := &bw.ProvenanceLog{}
	m.SetRecorder(log)
	defer m.SetRecorder(nil)

	export := &InfoareaExport{
		SchemaVersion: exportSchemaVersion,
		Contract:      exportContract,
		Infoarea:      strings.ToUpper(infoarea),
		ExportedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	flow := NewGraph("AREA", export.Infoarea)
	defer func() {
		export.DataflowNodes = flow.Nodes
		export.DataflowEdges = flow.Edges
		export.Warnings = append(export.Warnings, flow.Warnings...)
		export.Provenance = log.Entries
	}()

	seenObjects := map[string]int{}
	frontier := []frontierEntry{{objectType: "AREA", name: export.Infoarea}}
	visited := map[string]bool{strings.ToLower(export.Infoarea): true}

	first := true
	for len(frontier) > 0 {
		entry := frontier[0]
		frontier = frontier[1:]

		nodes, err := m.GetNodes(ctx, entry.objectType, entry.name, bw.NodeOptions{EndpointOverride: entry.override})
		if err != nil {
			if first {
				return nil, err
			}
			export.Warnings = append(export.Warnings,
				"structure of "+entry.name+": "+err.Error())
			continue
		}
		first = false

		for _, node := range nodes {
			if node.IsContainer() {
				key := strings.ToLower(node.URI)
				if key == "" {
					key = strings.ToLower(node.Name)
				}
				if visited[key] || entry.depth+1 >= maxDepth {
					continue
				}
				visited[key] = true
				child := frontierEntry{
					objectType: node.Type,
					name:       node.Name,
					uri:        node.URI,
					depth:      entry.depth + 1,
				}
				// Semantical folders have no standalone structure URL;
				// their own URI is the structure endpoint.
				if node.Type != "AREA" {
					child.override = node.URI
				}
				frontier = append(frontier, child)
				continue
			}
			admitObject(export, seenObjects, typeFilter, node)
		}
	}

	for i := range export.Objects {
		fetchDetail(ctx, m, export, &export.Objects[i], opts)
		// BuildDTPLineage installs its own recorder; restore ours.
		m.SetRecorder(log)
	}

	if opts.IncludeSearchSupplement {
		supplementFromSearch(ctx, m, export, seenObjects, typeFilter)
	}
	if opts.IncludeXrefEdges {
		addXrefEdges(ctx, m, export, seenObjects, flow)
	}
	if opts.IncludeElemProviderEdges {
		addElemProviderEdges(ctx, m, export, seenObjects, flow, opts.Version)
	}

	// Fold the per-object lineage into the global dataflow graph; the
	// graph's id index deduplicates across objects.
	for i := range export.Objects {
		lin := export.Objects[i].Lineage
		if lin == nil {
			continue
		}
		for _, n := range lin.Nodes {
			flow.AddNode(n)
		}
		for _, e := range lin.Edges {
			flow.AddEdge(e.From, e.To, e.Type, e.Attributes)
		}
		for _, p := range lin.Provenance {
			log.Record(bw.ProvenanceEntry{
				Operation: "lineage:" + p.Operation,
				Endpoint:  p.Endpoint,
				Status:    p.Status,
			})
		}
	}

	logger.Infof("infoarea %s: %d objects, %d dataflow nodes, %d warnings",
		export.Infoarea, len(export.Objects), len(flow.Nodes), len(export.Warnings))
	return export, nil
}

func objectKey(name string) string {
	return strings.ToUpper(name)
}

func admitObject(export *InfoareaExport, seen map[string]int, typeFilter map[string]bool, node bw.Node) {
	if node.Name == "" {
		return
	}
	if len(typeFilter) > 0 && !typeFilter[strings.ToUpper(node.Type)] {
		return
	}
	key := objectKey(node.Name)
	if _, ok := seen[key]; ok {
		return
	}
	export.Objects = append(export.Objects, ExportedObject{
		Name:        strings.ToUpper(node.Name),
		Type:        strings.ToUpper(node.Type),
		Description: node.Description,
		URI:         node.URI,
	})
	seen[key] = len(export.Objects) - 1
}

// fetchDetail loads the per-type detail of one exported object. Failures
// become warnings.
func fetchDetail(ctx context.Context, m Modeler, export *InfoareaExport, obj *ExportedObject, opts ExportOptions) {
	warn := func(err error) {
		export.Warnings = append(export.Warnings, obj.Type+" "+obj.Name+": "+err.Error())
	}
	switch obj.Type {
	case "ADSO", "DSO":
		detail, err := m.GetADSO(ctx, obj.Name, opts.Version)
		if err != nil {
			warn(err)
			return
		}
		obj.ADSO = detail
	case "RSDS":
		sourceSystem := bw.SourceSystemFromURI(obj.URI)
		if sourceSystem == "" {
			export.Warnings = append(export.Warnings,
				"RSDS "+obj.Name+": cannot derive source system from URI "+obj.URI)
			return
		}
		detail, err := m.GetRSDS(ctx, obj.Name, sourceSystem, opts.Version)
		if err != nil {
			warn(err)
			return
		}
		obj.RSDS = detail
	case "DTPA", "DTP":
		detail, err := m.GetDTP(ctx, obj.Name, opts.Version)
		if err != nil {
			warn(err)
			return
		}
		obj.DTP = detail
		if opts.IncludeLineage {
			// No xref during batch export to cap latency.
			lineage, err := BuildDTPLineage(ctx, m, obj.Name, LineageOptions{Version: opts.Version})
			if err != nil {
				warn(err)
				return
			}
			obj.Lineage = lineage
		}
	case "TRFN":
		detail, err := m.GetTRFN(ctx, obj.Name, opts.Version)
		if err != nil {
			warn(err)
			return
		}
		obj.TRFN = detail
	}
}

// supplementFromSearch admits ELEM and IOBJ search hits not already in
// the export. Infoprovider types are deliberately excluded: their xrefs
// would pull in other areas wholesale.
func supplementFromSearch(ctx context.Context, m Modeler, export *InfoareaExport, seen map[string]int, typeFilter map[string]bool) {
	hits, err := m.Search(ctx, export.Infoarea, bw.SearchOptions{Types: []string{"ELEM", "IOBJ"}})
	if err != nil {
		export.Warnings = append(export.Warnings, "search supplement: "+err.Error())
		return
	}
	for _, hit := range hits {
		t := strings.ToUpper(hit.Type)
		if t != "ELEM" && t != "IOBJ" {
			continue
		}
		admitObject(export, seen, typeFilter, bw.Node{
			Name: hit.Name, Type: t, Description: hit.Description, URI: hit.URI,
		})
	}
}

// addXrefEdges follows infoprovider cross-references, admitting missing
// consumers and adding provider-to-consumer edges.
func addXrefEdges(ctx context.Context, m Modeler, export *InfoareaExport, seen map[string]int, flow *Graph) {
	count := len(export.Objects)
	for i := 0; i < count; i++ {
		obj := export.Objects[i]
		if !infoproviderTypes[obj.Type] {
			continue
		}
		entries, err := m.Xref(ctx, obj.Type, obj.Name)
		if err != nil {
			export.Warnings = append(export.Warnings, "xref "+obj.Name+": "+err.Error())
			continue
		}
		providerID := NodeID(obj.Type, obj.Name)
		flow.AddNode(Node{ID: providerID, Type: obj.Type, Name: obj.Name})
		for _, x := range entries {
			if _, ok := seen[objectKey(x.Name)]; !ok {
				admitObject(export, seen, nil, bw.Node{Name: x.Name, Type: x.Type, Description: x.Description})
			}
			consumerID := NodeID(x.Type, x.Name)
			flow.AddNode(Node{ID: consumerID, Type: strings.ToUpper(x.Type), Name: strings.ToUpper(x.Name)})
			flow.AddEdge(providerID, consumerID, EdgeXref, nil)
		}
	}
}

// addElemProviderEdges reads each ELEM's query component to harvest iobj
// refs and connect the providing infoprovider when the ELEM has no
// incoming edge yet.
func addElemProviderEdges(ctx context.Context, m Modeler, export *InfoareaExport, seen map[string]int, flow *Graph, version string) {
	incoming := map[string]bool{}
	for _, e := range flow.Edges {
		incoming[e.To] = true
	}
	for i := range export.Objects {
		obj := &export.Objects[i]
		if obj.Type != "ELEM" {
			continue
		}
		comp, err := m.GetQueryComponent(ctx, bw.CompQuery, obj.Name, version)
		if err != nil {
			export.Warnings = append(export.Warnings, "ELEM "+obj.Name+": "+err.Error())
			continue
		}
		obj.Query = comp
		for _, ref := range comp.Refs {
			if strings.ToUpper(ref.Type) == "IOBJ" {
				obj.IobjRefs = append(obj.IobjRefs, ref)
			}
		}
		if comp.InfoProvider == "" {
			continue
		}
		providerIdx, ok := seen[objectKey(comp.InfoProvider)]
		if !ok {
			continue
		}
		provider := export.Objects[providerIdx]
		elemID := NodeID("ELEM", obj.Name)
		if incoming[elemID] {
			continue
		}
		providerID := NodeID(provider.Type, provider.Name)
		flow.AddNode(Node{ID: providerID, Type: provider.Type, Name: provider.Name})
		flow.AddNode(Node{ID: elemID, Type: "ELEM", Name: obj.Name, Attributes: map[string]string{
			"description": obj.Description,
		}})
		flow.AddEdge(providerID, elemID, "elem-provider", nil)
	}
}
