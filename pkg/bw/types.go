// Package bw is the client for the SAP BW modeling REST surface layered
// over ADT. It fetches repository structures, object details and lineage
// inputs, normalizing the many response shapes (Atom feeds, flat
// attributes, OData properties) into stable typed records.
package bw

// Node is one entry of an infoprovider structure or virtual folder feed.
type Node struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Subtype     string `json:"subtype,omitempty"`
	Version     string `json:"version,omitempty"`
	Status      string `json:"status,omitempty"`
	Description string `json:"description,omitempty"`
	URI         string `json:"uri,omitempty"`
}

// IsContainer reports whether the node nests further nodes (infoareas and
// semantical folders).
func (n Node) IsContainer() bool {
	return n.Type == "AREA" || n.Type == "semanticalFolder" || n.Subtype == "semanticalFolder"
}

// SearchHit is one BW search result.
type SearchHit struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	InfoArea    string `json:"infoarea,omitempty"`
	URI         string `json:"uri,omitempty"`
}

// FieldInfo is one field of an ADSO or DataSource definition.
type FieldInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Length      string `json:"length,omitempty"`
	Description string `json:"description,omitempty"`
	InfoObject  string `json:"infoobject,omitempty"`
	Key         bool   `json:"key,omitempty"`
}

// ObjectPointer names a source or target of a DTP or transformation.
type ObjectPointer struct {
	Type         string `json:"type,omitempty"`
	Name         string `json:"name,omitempty"`
	SourceSystem string `json:"source_system,omitempty"`
}

// ADSODetail is the parsed definition of an advanced DataStore object.
type ADSODetail struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	InfoArea    string      `json:"infoarea,omitempty"`
	Fields      []FieldInfo `json:"fields"`
}

// RSDSSegment is one segment of a DataSource.
type RSDSSegment struct {
	Name   string      `json:"name"`
	Fields []FieldInfo `json:"fields"`
}

// RSDSDetail is the parsed definition of a DataSource.
type RSDSDetail struct {
	Name         string        `json:"name"`
	SourceSystem string        `json:"source_system"`
	Description  string        `json:"description,omitempty"`
	Segments     []RSDSSegment `json:"segments,omitempty"`
	Fields       []FieldInfo   `json:"fields"`
}

// DTPDetail is the parsed definition of a data transfer process.
type DTPDetail struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Source      ObjectPointer `json:"source"`
	Target      ObjectPointer `json:"target"`
}

// TransformationRule is one rule of a transformation, connecting source
// fields to target fields.
type TransformationRule struct {
	SourceFields []string `json:"source_fields,omitempty"`
	TargetFields []string `json:"target_fields,omitempty"`
	RuleType     string   `json:"rule_type,omitempty"`
	Formula      string   `json:"formula,omitempty"`
	Constant     string   `json:"constant,omitempty"`
}

// TRFNDetail is the parsed definition of a transformation.
type TRFNDetail struct {
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Source      ObjectPointer        `json:"source"`
	Target      ObjectPointer        `json:"target"`
	Rules       []TransformationRule `json:"rules,omitempty"`
}

// ComponentRef is one reference harvested from a query component. Role is
// one of rows, columns, free, filter, member, subcomponent.
type ComponentRef struct {
	Type string `json:"type"`
	Role string `json:"role"`
	Name string `json:"name"`
}

// QueryComponent is the parsed definition of a reporting component
// (query, variable, restricted/calculated key figure, filter, structure).
type QueryComponent struct {
	ComponentType string         `json:"component_type"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	InfoProvider  string         `json:"info_provider,omitempty"`
	Refs          []ComponentRef `json:"refs,omitempty"`
	// RequestCount is the number of HTTP attempts spent on the
	// Accept-fallback ladder.
	RequestCount int `json:"request_count,omitempty"`
}

// XrefEntry is one cross-reference consumer of an infoprovider.
type XrefEntry struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// LogMessage is one application log entry.
type LogMessage struct {
	Severity  string `json:"severity,omitempty"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp,omitempty"`
}

// SearchType is one searchable object type from the search metadata
// endpoint.
type SearchType struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
}

// DataVolume is one row of the data volume statistics.
type DataVolume struct {
	Object  string `json:"object"`
	Type    string `json:"type,omitempty"`
	Records string `json:"records,omitempty"`
	SizeKB  string `json:"size_kb,omitempty"`
}

// LockEntry is one component lock.
type LockEntry struct {
	Object string `json:"object"`
	Owner  string `json:"owner,omitempty"`
	Mode   string `json:"mode,omitempty"`
}

// SystemInfo is the BW system metadata record.
type SystemInfo struct {
	SystemID      string `json:"system_id,omitempty"`
	Release       string `json:"release,omitempty"`
	SupportPack   string `json:"support_pack,omitempty"`
	BWRelease     string `json:"bw_release,omitempty"`
	Host          string `json:"host,omitempty"`
	Port          string `json:"port,omitempty"`
	Client        string `json:"client,omitempty"`
	Environment   string `json:"environment,omitempty"`
	Changeability string `json:"changeability,omitempty"`
}
