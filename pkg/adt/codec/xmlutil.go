// Package codec converts SAP XML bodies to typed records and builds the
// request bodies for create/clone/activate calls. Parsers are pure: they
// perform no I/O and never let an encoding/xml error escape untranslated.
//
// SAP responses come in several shapes (flat attributes, Atom feeds, OData
// property children, namespaced vs. plain attribute names), so parsing is
// done over a small element tree keyed by local names instead of rigid
// struct unmarshalling.
package codec

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
)

// Element is one parsed XML element. Attribute and element lookups compare
// local names only, so "bwModel:objectName" and "objectName" are the same
// key.
type Element struct {
	// Name is the local element name without namespace prefix.
	Name string
	// Attrs maps both the full attribute name (prefix:local) and the bare
	// local name to the value. Later duplicates do not override earlier
	// local-name entries, matching the namespaced-then-plain lookup order.
	Attrs map[string]string
	// Children are the child elements in document order.
	Children []*Element
	// Text is the concatenated character data directly inside the element.
	Text string
}

// ParseXML parses a complete XML document into an element tree. Parse
// errors carry the line number when the decoder can detect it.
func ParseXML(data []byte) (*Element, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	root, err := decodeElement(dec, nil)
	if err != nil {
		return nil, xmlError("ParseXML", err)
	}
	if root == nil {
		return nil, aerr.New(aerr.KindInternal, "ParseXML", "document contains no element")
	}
	return root, nil
}

// ParseFragment parses a body that may lack a single document root (the
// lock endpoint returns a top-less element set) by wrapping it in a
// synthetic root before parsing.
func ParseFragment(data []byte) (*Element, error) {
	wrapped := make([]byte, 0, len(data)+13)
	wrapped = append(wrapped, "<root>"...)
	wrapped = append(wrapped, stripXMLDeclaration(data)...)
	wrapped = append(wrapped, "</root>"...)
	return ParseXML(wrapped)
}

func stripXMLDeclaration(data []byte) []byte {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if bytes.HasPrefix(trimmed, []byte("<?xml")) {
		if end := bytes.Index(trimmed, []byte("?>")); end >= 0 {
			return trimmed[end+2:]
		}
	}
	return data
}

func xmlError(operation string, err error) error {
	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) {
		return aerr.Wrap(aerr.KindInternal, operation,
			fmt.Sprintf("XML syntax error at line %d: %s", syntaxErr.Line, syntaxErr.Msg), err)
	}
	return aerr.Wrap(aerr.KindInternal, operation, "parsing XML", err)
}

// decodeElement builds the tree for the first element found; parent==nil
// means we are looking for the document root.
func decodeElement(dec *xml.Decoder, parent *Element) (*Element, error) {
	var first *Element
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return first, nil
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Name: t.Name.Local, Attrs: attrMap(t.Attr)}
			if _, err := decodeElement(dec, el); err != nil {
				return nil, err
			}
			if parent == nil {
				return el, nil
			}
			parent.Children = append(parent.Children, el)
		case xml.EndElement:
			return first, nil
		case xml.CharData:
			if parent != nil {
				parent.Text += string(t)
			}
		}
	}
}

func attrMap(attrs []xml.Attr) map[string]string {
	m := make(map[string]string, len(attrs)*2)
	for _, a := range attrs {
		full := a.Name.Local
		if a.Name.Space != "" {
			full = a.Name.Space + ":" + a.Name.Local
		}
		m[full] = a.Value
		if _, exists := m[a.Name.Local]; !exists || a.Name.Space == "" {
			m[a.Name.Local] = a.Value
		}
	}
	return m
}

// Attr returns the first non-empty attribute value among names; each name
// is tried as given and then by local part, so callers can ask for
// "bwModel:objectName" and fall back to "objectName" implicitly.
func (e *Element) Attr(names ...string) string {
	if e == nil {
		return ""
	}
	for _, name := range names {
		if v, ok := e.Attrs[name]; ok && v != "" {
			return v
		}
		if idx := strings.IndexByte(name, ':'); idx >= 0 {
			if v, ok := e.Attrs[name[idx+1:]]; ok && v != "" {
				return v
			}
		}
	}
	return ""
}

// Child returns the first direct child with the given local name.
func (e *Element) Child(local string) *Element {
	if e == nil {
		return nil
	}
	for _, c := range e.Children {
		if c.Name == local {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns all direct children with the given local name.
func (e *Element) ChildrenNamed(local string) []*Element {
	if e == nil {
		return nil
	}
	var out []*Element
	for _, c := range e.Children {
		if c.Name == local {
			out = append(out, c)
		}
	}
	return out
}

// Find returns the first descendant (depth-first, including e itself) with
// the given local name.
func (e *Element) Find(local string) *Element {
	if e == nil {
		return nil
	}
	if e.Name == local {
		return e
	}
	for _, c := range e.Children {
		if found := c.Find(local); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every descendant (including e itself) with the given
// local name in document order.
func (e *Element) FindAll(local string) []*Element {
	if e == nil {
		return nil
	}
	var out []*Element
	if e.Name == local {
		out = append(out, e)
	}
	for _, c := range e.Children {
		out = append(out, c.FindAll(local)...)
	}
	return out
}

// ChildText returns the trimmed text of the first descendant with the
// given local name.
func (e *Element) ChildText(local string) string {
	if found := e.Find(local); found != nil {
		return strings.TrimSpace(found.Text)
	}
	return ""
}
