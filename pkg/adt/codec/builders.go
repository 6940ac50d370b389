package codec

import (
	"bytes"
	"encoding/xml"

	"github.com/erpl/erpl-adt/pkg/adt/types"
)

// XML namespaces used by the request builders.
const (
	nsAdtCore     = "http://www.sap.com/adt/core"
	nsPackages    = "http://www.sap.com/adt/packages"
	nsAbapGitRepo = "http://www.sap.com/adt/abapgit/repositories"
)

// BuildPackageCreateXML renders the body for creating a development
// package under super-package $TMP by default.
func BuildPackageCreateXML(name types.PackageName, description string, superPackage types.PackageName) string {
	if superPackage == "" {
		superPackage = "$TMP"
	}
	var buf bytes.Buffer
	enc := newEncoder(&buf)
	root := start("pak:package",
		attr("xmlns:pak", nsPackages),
		attr("xmlns:adtcore", nsAdtCore),
		attr("adtcore:name", name.String()),
		attr("adtcore:type", "DEVC/K"),
		attr("adtcore:description", description),
	)
	must(enc.EncodeToken(root))

	attributes := start("pak:attributes", attr("pak:packageType", "development"))
	must(enc.EncodeToken(attributes))
	must(enc.EncodeToken(attributes.End()))

	super := start("pak:superPackage", attr("adtcore:name", superPackage.String()))
	must(enc.EncodeToken(super))
	must(enc.EncodeToken(super.End()))

	for _, empty := range []string{"pak:subPackages", "pak:packageInterfaces", "pak:translation", "pak:useAccesses"} {
		el := start(empty)
		must(enc.EncodeToken(el))
		must(enc.EncodeToken(el.End()))
	}

	must(enc.EncodeToken(root.End()))
	must(enc.Flush())
	return xml.Header + buf.String()
}

// BuildRepoCloneXML renders the body linking and cloning an abapGit
// repository into a package. Transport and remote credential elements are
// emitted empty, matching what the abapGit backend expects.
func BuildRepoCloneXML(pkg types.PackageName, url types.RepoUrl, branch types.BranchRef) string {
	if branch == "" {
		branch = types.DefaultBranch
	}
	var buf bytes.Buffer
	enc := newEncoder(&buf)
	root := start("abapgitrepo:repository", attr("xmlns:abapgitrepo", nsAbapGitRepo))
	must(enc.EncodeToken(root))

	writeTextElement(enc, "abapgitrepo:package", pkg.String())
	writeTextElement(enc, "abapgitrepo:url", url.String())
	writeTextElement(enc, "abapgitrepo:branchName", branch.String())
	writeTextElement(enc, "abapgitrepo:transportRequest", "")
	writeTextElement(enc, "abapgitrepo:remoteUser", "")
	writeTextElement(enc, "abapgitrepo:remotePassword", "")

	must(enc.EncodeToken(root.End()))
	must(enc.Flush())
	return xml.Header + buf.String()
}

// BuildActivationXML wraps object references for the activation endpoint.
func BuildActivationXML(objects []ObjectRef) string {
	var buf bytes.Buffer
	enc := newEncoder(&buf)
	root := start("adtcore:objectReferences", attr("xmlns:adtcore", nsAdtCore))
	must(enc.EncodeToken(root))

	for _, obj := range objects {
		ref := start("adtcore:objectReference",
			attr("adtcore:uri", obj.URI),
			attr("adtcore:type", obj.Type),
			attr("adtcore:name", obj.Name),
		)
		must(enc.EncodeToken(ref))
		must(enc.EncodeToken(ref.End()))
	}

	must(enc.EncodeToken(root.End()))
	must(enc.Flush())
	return xml.Header + buf.String()
}

// ParseActivationXML is the inverse of BuildActivationXML, used by tests
// and by callers that need to inspect a previously built body.
func ParseActivationXML(data []byte) ([]ObjectRef, error) {
	root, err := ParseXML(data)
	if err != nil {
		return nil, err
	}
	var objects []ObjectRef
	for _, ref := range root.FindAll("objectReference") {
		objects = append(objects, ObjectRef{
			Type: ref.Attr("adtcore:type", "type"),
			Name: ref.Attr("adtcore:name", "name"),
			URI:  ref.Attr("adtcore:uri", "uri"),
		})
	}
	return objects, nil
}

func newEncoder(buf *bytes.Buffer) *xml.Encoder {
	return xml.NewEncoder(buf)
}

func start(name string, attrs ...xml.Attr) xml.StartElement {
	return xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs}
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

func writeTextElement(enc *xml.Encoder, name, text string) {
	el := start(name)
	must(enc.EncodeToken(el))
	if text != "" {
		must(enc.EncodeToken(xml.CharData(text)))
	}
	must(enc.EncodeToken(el.End()))
}

// must panics only on encoder writes into an in-memory buffer, which
// cannot fail with well-formed tokens.
func must(err error) {
	if err != nil {
		panic(err)
	}
}
