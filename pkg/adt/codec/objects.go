package codec

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
	"github.com/erpl/erpl-adt/pkg/adt/types"
)

// ObjectInfo is the metadata of one repository object.
type ObjectInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Package     string `json:"package,omitempty"`
	Version     string `json:"version,omitempty"`
	Responsible string `json:"responsible,omitempty"`
	Language    string `json:"language,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	ChangedAt   string `json:"changed_at,omitempty"`
	ChangedBy   string `json:"changed_by,omitempty"`
}

// ParseObjectInfo reads the adtcore attributes off an object root element.
func ParseObjectInfo(data []byte) (*ObjectInfo, error) {
	root, err := ParseXML(data)
	if err != nil {
		return nil, err
	}
	info := &ObjectInfo{
		Name:        root.Attr("adtcore:name", "name"),
		Type:        root.Attr("adtcore:type", "type"),
		Description: root.Attr("adtcore:description", "description"),
		Version:     root.Attr("adtcore:version", "version"),
		Responsible: root.Attr("adtcore:responsible", "responsible"),
		Language:    root.Attr("adtcore:masterLanguage", "masterLanguage"),
		CreatedAt:   root.Attr("adtcore:createdAt", "createdAt"),
		ChangedAt:   root.Attr("adtcore:changedAt", "changedAt"),
		ChangedBy:   root.Attr("adtcore:changedBy", "changedBy"),
	}
	if pkg := root.Find("packageRef"); pkg != nil {
		info.Package = pkg.Attr("adtcore:name", "name")
	}
	if info.Name == "" {
		return nil, aerr.New(aerr.KindInternal, "ParseObjectInfo", "object document carries no adtcore:name")
	}
	return info, nil
}

// creatableRoots maps object type categories to their create-request root
// element, namespace attribute, and collection endpoint.
var creatableRoots = map[string]struct {
	root     string
	nsPrefix string
	ns       string
	endpoint string
}{
	"CLAS": {"class:abapClass", "xmlns:class", "http://www.sap.com/adt/oo/classes", "/sap/bc/adt/oo/classes"},
	"INTF": {"intf:abapInterface", "xmlns:intf", "http://www.sap.com/adt/oo/interfaces", "/sap/bc/adt/oo/interfaces"},
	"PROG": {"program:abapProgram", "xmlns:program", "http://www.sap.com/adt/programs/programs", "/sap/bc/adt/programs/programs"},
	"FUGR": {"group:abapFunctionGroup", "xmlns:group", "http://www.sap.com/adt/functions/groups", "/sap/bc/adt/functions/groups"},
	"DDLS": {"ddl:ddlSource", "xmlns:ddl", "http://www.sap.com/adt/ddic/ddlsources", "/sap/bc/adt/ddic/ddl/sources"},
}

// CreateEndpoint returns the collection endpoint objects of the given type
// are created under.
func CreateEndpoint(objectType types.ObjectType) (string, error) {
	entry, ok := creatableRoots[objectType.Category()]
	if ok {
		return entry.endpoint, nil
	}
	return "", aerr.New(aerr.KindInternal, "CreateObject",
		"unsupported object type "+objectType.String())
}

// BuildObjectCreateXML renders the create-request body for a new
// repository object.
func BuildObjectCreateXML(objectType types.ObjectType, name string, pkg types.PackageName, description string) (string, error) {
	entry, ok := creatableRoots[objectType.Category()]
	if !ok {
		return "", aerr.New(aerr.KindInternal, "CreateObject",
			"unsupported object type "+objectType.String())
	}
	var buf bytes.Buffer
	enc := newEncoder(&buf)
	root := start(entry.root,
		attr(entry.nsPrefix, entry.ns),
		attr("xmlns:adtcore", nsAdtCore),
		attr("adtcore:name", strings.ToUpper(name)),
		attr("adtcore:type", objectType.String()),
		attr("adtcore:description", description),
	)
	must(enc.EncodeToken(root))

	pkgRef := start("adtcore:packageRef", attr("adtcore:name", pkg.String()))
	must(enc.EncodeToken(pkgRef))
	must(enc.EncodeToken(pkgRef.End()))

	must(enc.EncodeToken(root.End()))
	must(enc.Flush())
	return xml.Header + buf.String(), nil
}
