package bw

import (
	"strings"

	"github.com/erpl/erpl-adt/pkg/adt/codec"
)

// prop reads a value that may be delivered as an attribute, a namespaced
// attribute, or an OData-style property child. First non-empty wins.
func prop(el *codec.Element, names ...string) string {
	if el == nil {
		return ""
	}
	if v := el.Attr(names...); v != "" {
		return v
	}
	for _, name := range names {
		local := name
		if idx := strings.IndexByte(name, ':'); idx >= 0 {
			local = name[idx+1:]
		}
		if v := el.ChildText(local); v != "" {
			return v
		}
	}
	return ""
}

// ParseNodesFeed parses an infoprovider structure Atom feed into nodes.
// The entry id is the node URI; a link rel="self" href serves as fallback.
func ParseNodesFeed(body []byte) ([]Node, error) {
	root, err := codec.ParseXML(body)
	if err != nil {
		return nil, err
	}
	var nodes []Node
	for _, entry := range root.FindAll("entry") {
		n := Node{
			Name:        prop(entry, "objectName", "name"),
			Type:        prop(entry, "objectType", "type"),
			Subtype:     prop(entry, "objectSubtype", "subtype"),
			Version:     prop(entry, "objectVersion", "version"),
			Status:      prop(entry, "objectStatus", "status"),
			Description: prop(entry, "objectDesc", "description"),
			URI:         strings.TrimSpace(entry.ChildText("id")),
		}
		if n.Description == "" {
			n.Description = strings.TrimSpace(entry.ChildText("title"))
		}
		if n.URI == "" {
			for _, link := range entry.FindAll("link") {
				if link.Attr("rel") == "self" {
					n.URI = link.Attr("href")
					break
				}
			}
		}
		if n.Name == "" && n.URI == "" {
			continue
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// ParseSearchResults parses a BW search response. Hits arrive either as
// Atom entries or as flat result elements.
func ParseSearchResults(body []byte) ([]SearchHit, error) {
	root, err := codec.ParseXML(body)
	if err != nil {
		return nil, err
	}
	candidates := root.FindAll("entry")
	if len(candidates) == 0 {
		candidates = root.FindAll("searchResult")
	}
	if len(candidates) == 0 {
		candidates = root.FindAll("result")
	}
	var hits []SearchHit
	for _, el := range candidates {
		h := SearchHit{
			Name:        prop(el, "objectName", "name"),
			Type:        prop(el, "objectType", "type"),
			Description: prop(el, "objectDesc", "description"),
			InfoArea:    prop(el, "infoArea", "infoarea"),
			URI:         prop(el, "uri", "href"),
		}
		if h.URI == "" {
			h.URI = strings.TrimSpace(el.ChildText("id"))
		}
		if h.Name == "" {
			continue
		}
		hits = append(hits, h)
	}
	return hits, nil
}

func fieldFrom(el *codec.Element) FieldInfo {
	key := prop(el, "key", "isKey", "keyFlag")
	return FieldInfo{
		Name:        prop(el, "name", "fieldName"),
		Type:        prop(el, "type", "dataType", "datatype"),
		Length:      prop(el, "length", "outputLength"),
		Description: prop(el, "description", "text"),
		InfoObject:  prop(el, "infoObject", "infoObjectName"),
		Key:         key == "true" || key == "X",
	}
}

func fieldsUnder(el *codec.Element) []FieldInfo {
	var fields []FieldInfo
	seen := map[string]bool{}
	for _, name := range []string{"field", "element", "objectField"} {
		for _, f := range el.FindAll(name) {
			fi := fieldFrom(f)
			if fi.Name == "" || seen[fi.Name] {
				continue
			}
			seen[fi.Name] = true
			fields = append(fields, fi)
		}
	}
	return fields
}

// ParseADSO parses an advanced DataStore object definition.
func ParseADSO(body []byte) (*ADSODetail, error) {
	root, err := codec.ParseXML(body)
	if err != nil {
		return nil, err
	}
	return &ADSODetail{
		Name:        prop(root, "objectName", "name", "technicalName"),
		Description: prop(root, "objectDesc", "description", "text"),
		InfoArea:    prop(root, "infoArea", "infoarea"),
		Fields:      fieldsUnder(root),
	}, nil
}

// ParseRSDS parses a DataSource definition. Fields may be grouped into
// segments; ungrouped fields land in a single unnamed segment view.
func ParseRSDS(body []byte, sourceSystem string) (*RSDSDetail, error) {
	root, err := codec.ParseXML(body)
	if err != nil {
		return nil, err
	}
	detail := &RSDSDetail{
		Name:         prop(root, "objectName", "name", "technicalName"),
		SourceSystem: prop(root, "sourceSystem", "logsys"),
		Description:  prop(root, "objectDesc", "description", "text"),
	}
	if detail.SourceSystem == "" {
		detail.SourceSystem = sourceSystem
	}
	for _, seg := range root.FindAll("segment") {
		detail.Segments = append(detail.Segments, RSDSSegment{
			Name:   prop(seg, "name", "segmentName"),
			Fields: fieldsUnder(seg),
		})
	}
	if len(detail.Segments) > 0 {
		for _, seg := range detail.Segments {
			detail.Fields = append(detail.Fields, seg.Fields...)
		}
	} else {
		detail.Fields = fieldsUnder(root)
	}
	return detail, nil
}

func pointerFrom(el *codec.Element) ObjectPointer {
	return ObjectPointer{
		Type:         prop(el, "objectType", "type", "tlogo"),
		Name:         prop(el, "objectName", "name"),
		SourceSystem: prop(el, "sourceSystem", "logsys"),
	}
}

// ParseDTP parses a data transfer process definition into its source and
// target references.
func ParseDTP(body []byte) (*DTPDetail, error) {
	root, err := codec.ParseXML(body)
	if err != nil {
		return nil, err
	}
	detail := &DTPDetail{
		Name:        prop(root, "objectName", "name", "technicalName"),
		Description: prop(root, "objectDesc", "description", "text"),
	}
	if src := root.Find("source"); src != nil {
		detail.Source = pointerFrom(src)
	}
	if tgt := root.Find("target"); tgt != nil {
		detail.Target = pointerFrom(tgt)
	}
	return detail, nil
}

func fieldNames(rule *codec.Element, plural, singular string) []string {
	var out []string
	if list := rule.Child(plural); list != nil {
		for _, f := range list.Children {
			if name := prop(f, "name", "fieldName"); name != "" {
				out = append(out, name)
			} else if text := strings.TrimSpace(f.Text); text != "" {
				out = append(out, text)
			}
		}
	}
	if len(out) == 0 {
		if name := prop(rule.Child(singular), "name", "fieldName"); name != "" {
			out = append(out, name)
		} else if v := rule.Attr(singular); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func ruleFrom(el *codec.Element) TransformationRule {
	return TransformationRule{
		SourceFields: fieldNames(el, "sourceFields", "sourceField"),
		TargetFields: fieldNames(el, "targetFields", "targetField"),
		RuleType:     prop(el, "ruleType", "type"),
		Formula:      prop(el, "formula"),
		Constant:     prop(el, "constant", "constantValue"),
	}
}

// ParseTRFN parses a transformation: source/target references plus the
// field-mapping rules. Rules appear directly under the rules element or
// nested inside groups.
func ParseTRFN(body []byte) (*TRFNDetail, error) {
	root, err := codec.ParseXML(body)
	if err != nil {
		return nil, err
	}
	detail := &TRFNDetail{
		Name:        prop(root, "objectName", "name", "technicalName"),
		Description: prop(root, "objectDesc", "description", "text"),
	}
	if src := root.Find("source"); src != nil {
		detail.Source = pointerFrom(src)
	}
	if tgt := root.Find("target"); tgt != nil {
		detail.Target = pointerFrom(tgt)
	}
	if rules := root.Find("rules"); rules != nil {
		for _, child := range rules.Children {
			switch child.Name {
			case "rule":
				detail.Rules = append(detail.Rules, ruleFrom(child))
			case "group":
				for _, r := range child.ChildrenNamed("rule") {
					detail.Rules = append(detail.Rules, ruleFrom(r))
				}
			}
		}
	}
	return detail, nil
}

// refsFromContainer collects component refs under el with the given role,
// deduplicating against seen by (type, role, name).
func refsFromContainer(el *codec.Element, role string, seen map[string]bool, out *[]ComponentRef) {
	if el == nil {
		return
	}
	for _, child := range el.Children {
		name := prop(child, "objectName", "name")
		if name == "" {
			continue
		}
		ref := ComponentRef{
			Type: prop(child, "objectType", "type"),
			Role: role,
			Name: name,
		}
		key := ref.Type + "\x00" + ref.Role + "\x00" + ref.Name
		if seen[key] {
			continue
		}
		seen[key] = true
		*out = append(*out, ref)
	}
}

// ParseQueryResource parses a Qry:queryResource document. Dimensional refs
// come from mainComponent rows/columns/free, filter refs from selections,
// member hints from defaultHint and typed refs from subComponents.
func ParseQueryResource(body []byte, componentType string) (*QueryComponent, error) {
	root, err := codec.ParseXML(body)
	if err != nil {
		return nil, err
	}
	detail := root
	if q := root.Find("query"); q != nil {
		detail = q
	} else if v := root.Find("variable"); v != nil {
		detail = v
	}
	comp := &QueryComponent{
		ComponentType: componentType,
		Name:          prop(detail, "objectName", "name", "technicalName"),
		Description:   prop(detail, "objectDesc", "description", "text"),
		InfoProvider:  prop(detail, "infoProvider", "infoprovider"),
	}
	if comp.Name == "" {
		comp.Name = prop(root, "objectName", "name", "technicalName")
	}
	seen := map[string]bool{}
	if main := root.Find("mainComponent"); main != nil {
		refsFromContainer(main.Find("rows"), "rows", seen, &comp.Refs)
		refsFromContainer(main.Find("columns"), "columns", seen, &comp.Refs)
		refsFromContainer(main.Find("free"), "free", seen, &comp.Refs)
	}
	refsFromContainer(root.Find("selections"), "filter", seen, &comp.Refs)
	refsFromContainer(root.Find("defaultHint"), "member", seen, &comp.Refs)
	refsFromContainer(root.Find("subComponents"), "subcomponent", seen, &comp.Refs)
	return comp, nil
}

// ParseXrefEntries parses cross-reference consumers of an infoprovider.
func ParseXrefEntries(body []byte) ([]XrefEntry, error) {
	root, err := codec.ParseXML(body)
	if err != nil {
		return nil, err
	}
	candidates := root.FindAll("entry")
	if len(candidates) == 0 {
		candidates = root.FindAll("reference")
	}
	var entries []XrefEntry
	for _, el := range candidates {
		e := XrefEntry{
			Name:        prop(el, "objectName", "name"),
			Type:        prop(el, "objectType", "type"),
			Description: prop(el, "objectDesc", "description"),
		}
		if e.Description == "" {
			e.Description = strings.TrimSpace(el.ChildText("title"))
		}
		if e.Name == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// flatten collects the element's attributes and leaf child texts into one
// string map. Child attributes win over text when both exist.
func flatten(el *codec.Element) map[string]string {
	out := map[string]string{}
	if el == nil {
		return out
	}
	for k, v := range el.Attrs {
		if !strings.Contains(k, ":") && !strings.HasPrefix(k, "xmlns") {
			out[k] = v
		}
	}
	for _, child := range el.Children {
		if len(child.Children) > 0 {
			for k, v := range flatten(child) {
				if _, exists := out[k]; !exists {
					out[k] = v
				}
			}
			continue
		}
		if text := strings.TrimSpace(child.Text); text != "" {
			if _, exists := out[child.Name]; !exists {
				out[child.Name] = text
			}
		}
		for k, v := range child.Attrs {
			if strings.Contains(k, ":") || strings.HasPrefix(k, "xmlns") {
				continue
			}
			key := child.Name + "." + k
			if _, exists := out[key]; !exists {
				out[key] = v
			}
		}
	}
	return out
}

// ParseProperties parses an arbitrary BW metadata document into a flat
// key/value map, used by the subsidiary endpoints that have no richer
// schema worth modelling.
func ParseProperties(body []byte) (map[string]string, error) {
	root, err := codec.ParseXML(body)
	if err != nil {
		return nil, err
	}
	return flatten(root), nil
}

// ParseSystemInfo parses the systeminfo document.
func ParseSystemInfo(body []byte) (*SystemInfo, error) {
	props, err := ParseProperties(body)
	if err != nil {
		return nil, err
	}
	pick := func(names ...string) string {
		for _, n := range names {
			if v := props[n]; v != "" {
				return v
			}
		}
		return ""
	}
	return &SystemInfo{
		SystemID:      pick("systemId", "sid", "systemID"),
		Release:       pick("release", "saprelease"),
		SupportPack:   pick("supportPackage", "sp"),
		BWRelease:     pick("bwRelease", "bwrelease"),
		Host:          pick("host", "hostname"),
		Client:        pick("client", "mandt"),
		Environment:   pick("environment", "systemType"),
		Changeability: pick("changeability", "changeable"),
	}, nil
}
