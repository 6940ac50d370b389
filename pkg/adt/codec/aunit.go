package codec

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// TestAlert is one finding raised by a unit test method.
type TestAlert struct {
	Kind     string   `json:"kind"`
	Severity string   `json:"severity"`
	Title    string   `json:"title"`
	Details  []string `json:"details,omitempty"`
}

// TestMethodResult is the outcome of one executed test method.
type TestMethodResult struct {
	Class  string      `json:"class"`
	Method string      `json:"method"`
	Time   string      `json:"execution_time,omitempty"`
	Alerts []TestAlert `json:"alerts,omitempty"`
}

// TestRunResult aggregates one abapunit test run.
type TestRunResult struct {
	Methods []TestMethodResult `json:"methods"`
	Total   int                `json:"total"`
	Failed  int                `json:"failed"`
}

// Success reports whether no test method raised an alert.
func (r *TestRunResult) Success() bool { return r.Failed == 0 }

// BuildTestRunXML renders the abapunit testruns request for one object.
func BuildTestRunXML(objectURI string) string {
	var buf bytes.Buffer
	enc := newEncoder(&buf)
	root := start("aunit:runConfiguration", attr("xmlns:aunit", "http://www.sap.com/adt/aunit"))
	must(enc.EncodeToken(root))

	external := start("external")
	must(enc.EncodeToken(external))
	coverage := start("coverage", attr("active", "false"))
	must(enc.EncodeToken(coverage))
	must(enc.EncodeToken(coverage.End()))
	must(enc.EncodeToken(external.End()))

	adtcore := start("adtcore:objectSets", attr("xmlns:adtcore", nsAdtCore))
	must(enc.EncodeToken(adtcore))
	objSet := start("objectSet", attr("kind", "inclusive"))
	must(enc.EncodeToken(objSet))
	refs := start("adtcore:objectReferences")
	must(enc.EncodeToken(refs))
	ref := start("adtcore:objectReference", attr("adtcore:uri", objectURI))
	must(enc.EncodeToken(ref))
	must(enc.EncodeToken(ref.End()))
	must(enc.EncodeToken(refs.End()))
	must(enc.EncodeToken(objSet.End()))
	must(enc.EncodeToken(adtcore.End()))

	must(enc.EncodeToken(root.End()))
	must(enc.Flush())
	return xml.Header + buf.String()
}

// ParseTestRunResult parses an abapunit run result. A method counts as
// failed when it carries at least one alert.
func ParseTestRunResult(data []byte) (*TestRunResult, error) {
	result := &TestRunResult{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return result, nil
	}
	root, err := ParseXML(data)
	if err != nil {
		return nil, err
	}
	for _, class := range root.FindAll("testClass") {
		className := class.Attr("adtcore:name", "name")
		for _, method := range class.FindAll("testMethod") {
			mr := TestMethodResult{
				Class:  className,
				Method: method.Attr("adtcore:name", "name"),
				Time:   method.Attr("executionTime"),
			}
			for _, alert := range method.FindAll("alert") {
				a := TestAlert{
					Kind:     alert.Attr("kind"),
					Severity: alert.Attr("severity"),
					Title:    alert.ChildText("title"),
				}
				for _, detail := range alert.FindAll("detail") {
					if text := detail.Attr("text"); text != "" {
						a.Details = append(a.Details, text)
					}
				}
				mr.Alerts = append(mr.Alerts, a)
			}
			result.Methods = append(result.Methods, mr)
			result.Total++
			if len(mr.Alerts) > 0 {
				result.Failed++
			}
		}
	}
	return result, nil
}
