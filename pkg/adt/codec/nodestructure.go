package codec

// PackageObject is one non-package object inside a package.
type PackageObject struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	URI         string `json:"uri,omitempty"`
	Description string `json:"description,omitempty"`
}

// PackageContent is the parsed node structure of one package.
type PackageContent struct {
	Name        string          `json:"name"`
	Objects     []PackageObject `json:"objects"`
	SubPackages []string        `json:"sub_packages"`
}

// ParseNodeStructure parses the nodestructure response for a package. An
// empty body (freshly created package) yields empty content rather than an
// error.
func ParseNodeStructure(data []byte, packageName string) (*PackageContent, error) {
	content := &PackageContent{
		Name:        packageName,
		Objects:     []PackageObject{},
		SubPackages: []string{},
	}
	if len(data) == 0 {
		return content, nil
	}
	root, err := ParseXML(data)
	if err != nil {
		return nil, err
	}
	for _, node := range root.FindAll("SEU_ADT_REPOSITORY_OBJ_NODE") {
		name := node.ChildText("OBJECT_NAME")
		if name == "" {
			continue
		}
		objType := node.ChildText("OBJECT_TYPE")
		if objType == "DEVC/K" {
			content.SubPackages = append(content.SubPackages, name)
			continue
		}
		content.Objects = append(content.Objects, PackageObject{
			Type:        objType,
			Name:        name,
			URI:         node.ChildText("OBJECT_URI"),
			Description: node.ChildText("DESCRIPTION"),
		})
	}
	return content, nil
}
