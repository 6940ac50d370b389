package codec

import (
	"bytes"
	"encoding/xml"
	"strconv"
)

// CheckFinding is one finding of a quality check run.
type CheckFinding struct {
	URI         string `json:"uri"`
	Location    string `json:"location,omitempty"`
	Priority    int    `json:"priority"`
	CheckID     string `json:"check_id,omitempty"`
	MessageText string `json:"message"`
}

// CheckRunResult aggregates one ATC/syntax check run. Priority 1 findings
// are errors; the exit-code mapping keys off ErrorCount.
type CheckRunResult struct {
	Findings   []CheckFinding `json:"findings"`
	ErrorCount int            `json:"error_count"`
	WarnCount  int            `json:"warning_count"`
	InfoCount  int            `json:"info_count"`
}

// HasErrors reports whether any error-priority finding exists.
func (r *CheckRunResult) HasErrors() bool { return r.ErrorCount > 0 }

// BuildCheckRunXML renders the checkruns request body for one object.
func BuildCheckRunXML(objectURI, checkVariant string) string {
	var buf bytes.Buffer
	enc := newEncoder(&buf)
	attrs := []xml.Attr{attr("xmlns:chkrun", "http://www.sap.com/adt/checkrun")}
	if checkVariant != "" {
		attrs = append(attrs, attr("chkrun:checkVariant", checkVariant))
	}
	root := start("chkrun:checkObjectList", attrs...)
	must(enc.EncodeToken(root))

	adtcore := start("adtcore:objectReferences", attr("xmlns:adtcore", nsAdtCore))
	must(enc.EncodeToken(adtcore))
	ref := start("chkrun:checkObject", attr("adtcore:uri", objectURI), attr("chkrun:version", "active"))
	must(enc.EncodeToken(ref))
	must(enc.EncodeToken(ref.End()))
	must(enc.EncodeToken(adtcore.End()))

	must(enc.EncodeToken(root.End()))
	must(enc.Flush())
	return xml.Header + buf.String()
}

// ParseCheckRunResult parses a checkruns response. Message types E and A
// (and priority 1) count as errors, W/priority 2 as warnings, the rest as
// informational.
func ParseCheckRunResult(data []byte) (*CheckRunResult, error) {
	result := &CheckRunResult{}
	if len(data) == 0 {
		return result, nil
	}
	root, err := ParseXML(data)
	if err != nil {
		return nil, err
	}
	for _, msg := range root.FindAll("checkMessage") {
		finding := CheckFinding{
			URI:         msg.Attr("chkrun:uri", "uri"),
			MessageText: msg.Attr("chkrun:shortText", "shortText"),
			CheckID:     msg.Attr("chkrun:checkId", "checkId"),
		}
		if finding.MessageText == "" {
			finding.MessageText = msg.ChildText("shortText")
		}
		finding.Priority = parsePriority(msg.Attr("chkrun:type", "type"), msg.Attr("chkrun:priority", "priority"))
		result.Findings = append(result.Findings, finding)
		switch finding.Priority {
		case 1:
			result.ErrorCount++
		case 2:
			result.WarnCount++
		default:
			result.InfoCount++
		}
	}
	return result, nil
}

func parsePriority(msgType, priority string) int {
	if priority != "" {
		if p, err := strconv.Atoi(priority); err == nil && p > 0 {
			return p
		}
	}
	switch msgType {
	case "E", "A":
		return 1
	case "W":
		return 2
	default:
		return 3
	}
}
