package graph

import (
	"fmt"
	"strings"
)

// MermaidOptions tunes the infoarea diagram.
type MermaidOptions struct {
	// IncludeInfoObjects renders IOBJ nodes in their own subgraph.
	IncludeInfoObjects bool
	// IobjEdges adds query-to-infoobject edges labelled by role.
	IobjEdges bool
}

// subgraph orders and membership for the infoarea diagram. DTPA, TRFN,
// IOBJ and edge-less ELEMs are infrastructure and get no standalone node.
var mermaidGroups = []struct {
	title string
	types map[string]bool
}{
	{"Sources (RSDS)", map[string]bool{"RSDS": true}},
	{"Staging", map[string]bool{"ADSO": true, "DSO": true}},
	{"InfoCubes", map[string]bool{"CUBE": true, "HCPR": true}},
	{"MultiProviders", map[string]bool{"MPRO": true, "VRRC": true}},
	{"Queries", map[string]bool{"QUERY": true, "ELEM": true}},
}

const mermaidHeader = "%%{init: {'flowchart': {'curve': 'basis'}}}%%\ngraph LR\n"

// mermaidLabel renders "name<br/>desc" with the description clipped to 40
// characters and quotes replaced by #quot;.
func mermaidLabel(name, description string) string {
	desc := description
	if len(desc) > 40 {
		desc = desc[:40]
	}
	label := name
	if desc != "" {
		label += "<br/>" + desc
	}
	return strings.ReplaceAll(label, `"`, "#quot;")
}

func mermaidID(name string) string {
	return SanitizeID(strings.ToUpper(name))
}

// iobjRoleAbbr maps a component ref to the edge label abbreviation.
func iobjRoleAbbr(refType, role string) string {
	switch {
	case strings.EqualFold(refType, "VARIABLE"):
		return "var"
	case strings.EqualFold(refType, "CKF"), strings.EqualFold(refType, "RKF"), role == "columns":
		return "kf"
	case role == "filter", role == "member":
		return "filter"
	default:
		return "dim"
	}
}

// RenderInfoareaMermaid renders an infoarea export as a Mermaid flow
// diagram: left-to-right, objects grouped by type, dataflow edges between
// them. With no dataflow edges, DTPs are drawn as labelled edges instead.
func RenderInfoareaMermaid(export *InfoareaExport, opts MermaidOptions) string {
	var b strings.Builder
	b.WriteString(mermaidHeader)

	hasEdge := map[string]bool{}
	for _, e := range export.DataflowEdges {
		hasEdge[e.From] = true
		hasEdge[e.To] = true
	}
	elemHasEdge := func(obj ExportedObject) bool {
		return hasEdge[NodeID(obj.Type, obj.Name)]
	}

	rendered := map[string]bool{}
	writeNode := func(obj ExportedObject, indent string) {
		id := mermaidID(obj.Name)
		if rendered[id] {
			return
		}
		rendered[id] = true
		fmt.Fprintf(&b, "%s%s[\"%s\"]\n", indent, id, mermaidLabel(obj.Name, obj.Description))
	}

	for _, group := range mermaidGroups {
		var members []ExportedObject
		for _, obj := range export.Objects {
			if !group.types[obj.Type] {
				continue
			}
			if obj.Type == "ELEM" && !elemHasEdge(obj) && len(obj.IobjRefs) == 0 {
				continue
			}
			members = append(members, obj)
		}
		if len(members) == 0 {
			continue
		}
		title := group.title
		if strings.HasPrefix(title, "Staging") {
			title = fmt.Sprintf("Staging[%s]", export.Infoarea)
		}
		fmt.Fprintf(&b, "  subgraph %s\n", strings.ReplaceAll(title, " ", "_"))
		for _, obj := range members {
			writeNode(obj, "    ")
		}
		b.WriteString("  end\n")
	}

	if opts.IncludeInfoObjects {
		var iobjs []ExportedObject
		for _, obj := range export.Objects {
			if obj.Type == "IOBJ" {
				iobjs = append(iobjs, obj)
			}
		}
		if len(iobjs) > 0 {
			b.WriteString("  subgraph InfoObjects\n")
			for _, obj := range iobjs {
				writeNode(obj, "    ")
			}
			b.WriteString("  end\n")
		}
	}

	edgeCount := 0
	for _, e := range export.DataflowEdges {
		from := nodeDrawID(export, e.From)
		to := nodeDrawID(export, e.To)
		if from == "" || to == "" || !rendered[from] || !rendered[to] {
			continue
		}
		fmt.Fprintf(&b, "  %s --> %s\n", from, to)
		edgeCount++
	}

	// Fallback when the export found no dataflow at all: draw DTPs as
	// labelled edges between their endpoints.
	if edgeCount == 0 {
		for _, obj := range export.Objects {
			if obj.DTP == nil || obj.DTP.Source.Name == "" || obj.DTP.Target.Name == "" {
				continue
			}
			from := mermaidID(obj.DTP.Source.Name)
			to := mermaidID(obj.DTP.Target.Name)
			if !rendered[from] || !rendered[to] {
				continue
			}
			fmt.Fprintf(&b, "  %s -->|%s| %s\n", from, obj.Name, to)
		}
	}

	if opts.IobjEdges {
		for _, obj := range export.Objects {
			if obj.Type != "ELEM" {
				continue
			}
			queryID := mermaidID(obj.Name)
			if !rendered[queryID] {
				continue
			}
			for _, ref := range obj.IobjRefs {
				iobjID := mermaidID(ref.Name)
				if !rendered[iobjID] {
					continue
				}
				fmt.Fprintf(&b, "  %s -->|%s| %s\n", queryID, iobjRoleAbbr(ref.Type, ref.Role), iobjID)
			}
		}
	}

	return b.String()
}

// nodeDrawID maps a graph node id back to the diagram id of its object,
// which is keyed by name rather than type and name.
func nodeDrawID(export *InfoareaExport, graphID string) string {
	for _, n := range export.DataflowNodes {
		if n.ID == graphID {
			return mermaidID(n.Name)
		}
	}
	return ""
}
