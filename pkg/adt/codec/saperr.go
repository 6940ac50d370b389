package codec

import "strings"

// ExtractSAPError pulls the SAP-side short text out of an error response
// body. ADT error bodies carry an exc:message (or plain message) element;
// non-XML bodies are returned trimmed and truncated.
func ExtractSAPError(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "<") {
		if root, err := ParseXML(body); err == nil {
			for _, local := range []string{"localizedMessage", "message", "shortText"} {
				if text := root.ChildText(local); text != "" {
					return text
				}
			}
		}
		return ""
	}
	const maxLen = 200
	if len(trimmed) > maxLen {
		trimmed = trimmed[:maxLen]
	}
	return trimmed
}
