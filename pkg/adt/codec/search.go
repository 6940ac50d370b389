package codec

// SearchResult is one hit of the repository information system search.
type SearchResult struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	URI         string `json:"uri"`
	Package     string `json:"package,omitempty"`
	Description string `json:"description,omitempty"`
}

// ParseSearchResults parses the objectReferences document returned by the
// information system search.
func ParseSearchResults(data []byte) ([]SearchResult, error) {
	root, err := ParseXML(data)
	if err != nil {
		return nil, err
	}
	var results []SearchResult
	for _, ref := range root.FindAll("objectReference") {
		name := ref.Attr("adtcore:name", "name")
		if name == "" {
			continue
		}
		results = append(results, SearchResult{
			Name:        name,
			Type:        ref.Attr("adtcore:type", "type"),
			URI:         ref.Attr("adtcore:uri", "uri"),
			Package:     ref.Attr("adtcore:packageName", "packageName"),
			Description: ref.Attr("adtcore:description", "description"),
		})
	}
	return results, nil
}
