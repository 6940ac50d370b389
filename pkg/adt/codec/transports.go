package codec

import (
	"bytes"
	"encoding/xml"
)

// TransportInfo is one transport request.
type TransportInfo struct {
	Number      string `json:"number"`
	Description string `json:"description,omitempty"`
	Owner       string `json:"owner,omitempty"`
	Status      string `json:"status,omitempty"`
	Target      string `json:"target,omitempty"`
	Type        string `json:"type,omitempty"`
}

// ParseTransportList parses the transport management list for a user.
func ParseTransportList(data []byte) ([]TransportInfo, error) {
	root, err := ParseXML(data)
	if err != nil {
		return nil, err
	}
	var transports []TransportInfo
	for _, req := range root.FindAll("request") {
		number := req.Attr("tm:number", "number")
		if number == "" {
			continue
		}
		transports = append(transports, TransportInfo{
			Number:      number,
			Description: req.Attr("tm:desc", "desc"),
			Owner:       req.Attr("tm:owner", "owner"),
			Status:      req.Attr("tm:status", "status"),
			Target:      req.Attr("tm:target", "target"),
			Type:        req.Attr("tm:type", "type"),
		})
	}
	return transports, nil
}

// BuildTransportCreateXML renders the body for creating a workbench
// transport request.
func BuildTransportCreateXML(description, targetPackage string) string {
	var buf bytes.Buffer
	enc := newEncoder(&buf)
	root := start("tm:root",
		attr("xmlns:tm", "http://www.sap.com/cts/adt/tm"),
		attr("tm:useraction", "newrequest"),
	)
	must(enc.EncodeToken(root))

	request := start("tm:request",
		attr("tm:desc", description),
		attr("tm:type", "K"),
		attr("tm:target", "LOCAL"),
		attr("tm:cts_project", ""),
	)
	must(enc.EncodeToken(request))
	if targetPackage != "" {
		taskAttrs := start("tm:task", attr("tm:owner", ""))
		must(enc.EncodeToken(taskAttrs))
		must(enc.EncodeToken(taskAttrs.End()))
	}
	must(enc.EncodeToken(request.End()))

	must(enc.EncodeToken(root.End()))
	must(enc.Flush())
	return xml.Header + buf.String()
}

// ParseCreatedTransport extracts the transport number assigned by a create
// call.
func ParseCreatedTransport(data []byte) (string, error) {
	root, err := ParseXML(data)
	if err != nil {
		return "", err
	}
	if number := root.Attr("tm:number", "number"); number != "" {
		return number, nil
	}
	if req := root.Find("request"); req != nil {
		if number := req.Attr("tm:number", "number"); number != "" {
			return number, nil
		}
	}
	return root.ChildText("number"), nil
}
