package codec

import "strings"

// ObjectRef identifies one repository object by type, name and ADT URI.
type ObjectRef struct {
	Type string `json:"type"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// ActivationMessage is one message of an activation run.
type ActivationMessage struct {
	Severity  string `json:"severity"`
	ShortText string `json:"short_text"`
	ObjectURI string `json:"object_uri,omitempty"`
}

// ActivationResult summarizes an activation run. Activated+Failed equals
// the number of counted messages plus remaining inactive objects.
type ActivationResult struct {
	Activated int                 `json:"activated"`
	Failed    int                 `json:"failed"`
	Messages  []ActivationMessage `json:"messages,omitempty"`
	Inactive  []ObjectRef         `json:"inactive,omitempty"`
}

// Success reports whether the run left nothing failed.
func (r *ActivationResult) Success() bool {
	return r.Failed == 0
}

// ParseActivationResult counts activation messages: severities E and A are
// failures, everything else counts as activated. Remaining inactive
// objects in the response each count as one more failure.
func ParseActivationResult(data []byte) (*ActivationResult, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		// An empty 200 body means everything activated.
		return &ActivationResult{}, nil
	}
	root, err := ParseXML(data)
	if err != nil {
		return nil, err
	}
	result := &ActivationResult{}
	for _, msg := range root.FindAll("msg") {
		m := ActivationMessage{
			Severity:  msg.Attr("type"),
			ShortText: strings.TrimSpace(msg.ChildText("shortText")),
			ObjectURI: msg.Attr("objDescr", "href"),
		}
		if m.ShortText == "" {
			m.ShortText = strings.TrimSpace(msg.Text)
		}
		result.Messages = append(result.Messages, m)
		if m.Severity == "E" || m.Severity == "A" {
			result.Failed++
		} else {
			result.Activated++
		}
	}
	// Remaining inactive objects are failures even without a message.
	for _, entry := range root.FindAll("entry") {
		if ref := entry.Find("ref"); ref != nil {
			obj := ObjectRef{
				Type: ref.Attr("adtcore:type", "type"),
				Name: ref.Attr("adtcore:name", "name"),
				URI:  ref.Attr("adtcore:uri", "uri"),
			}
			result.Inactive = append(result.Inactive, obj)
			result.Failed++
		}
	}
	return result, nil
}

// ParseInactiveObjects iterates the ioc:entry/ioc:object/ioc:ref
// references of the inactive-objects document.
func ParseInactiveObjects(data []byte) ([]ObjectRef, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	root, err := ParseXML(data)
	if err != nil {
		return nil, err
	}
	var refs []ObjectRef
	for _, entry := range root.FindAll("entry") {
		obj := entry.Find("object")
		if obj == nil {
			obj = entry
		}
		ref := obj.Find("ref")
		if ref == nil {
			continue
		}
		name := ref.Attr("adtcore:name", "name")
		if name == "" {
			continue
		}
		refs = append(refs, ObjectRef{
			Type: ref.Attr("adtcore:type", "type"),
			Name: name,
			URI:  ref.Attr("adtcore:uri", "uri"),
		})
	}
	return refs, nil
}

// PollState is the parsed adtcore:status of a long-running operation.
type PollState struct {
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
}

// ParsePollStatus reads the adtcore:status value of a poll body. When the
// run failed, the adtcore:progress text is appended to the description.
func ParsePollStatus(data []byte) (*PollState, error) {
	root, err := ParseXML(data)
	if err != nil {
		return nil, err
	}
	state := &PollState{
		Status:      root.Attr("adtcore:status", "status"),
		Description: root.Attr("adtcore:statusDescription", "statusDescription"),
	}
	if state.Status == "" {
		state.Status = root.ChildText("status")
	}
	if state.Status == "failed" {
		if progress := root.ChildText("progress"); progress != "" {
			if state.Description != "" {
				state.Description += ": " + progress
			} else {
				state.Description = progress
			}
		}
	}
	return state, nil
}
