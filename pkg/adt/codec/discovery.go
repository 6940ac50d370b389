package codec

import "strings"

// Collection is one app:collection entry of the ADT discovery document.
type Collection struct {
	Href     string `json:"href"`
	Title    string `json:"title"`
	Category string `json:"category,omitempty"`
}

// DiscoveryInfo describes the service document plus the capability flags
// derived from it.
type DiscoveryInfo struct {
	Collections        []Collection `json:"collections"`
	SupportsAbapGit    bool         `json:"supports_abapgit"`
	SupportsPackages   bool         `json:"supports_packages"`
	SupportsActivation bool         `json:"supports_activation"`
}

// ParseDiscovery collects the workspace collections of the discovery
// document and infers which capabilities the system exposes.
func ParseDiscovery(data []byte) (*DiscoveryInfo, error) {
	root, err := ParseXML(data)
	if err != nil {
		return nil, err
	}
	info := &DiscoveryInfo{}
	for _, workspace := range root.FindAll("workspace") {
		for _, coll := range workspace.FindAll("collection") {
			entry := Collection{
				Href:  coll.Attr("href"),
				Title: coll.ChildText("title"),
			}
			if cat := coll.Child("category"); cat != nil {
				entry.Category = cat.Attr("term")
			}
			info.Collections = append(info.Collections, entry)

			switch {
			case strings.Contains(entry.Href, "/abapgit/repos"):
				info.SupportsAbapGit = true
			case strings.Contains(entry.Href, "/packages"):
				info.SupportsPackages = true
			case entry.Href == "/sap/bc/adt/activation":
				info.SupportsActivation = true
			}
		}
	}
	return info, nil
}
