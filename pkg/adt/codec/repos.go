package codec

// RepoStatus is the normalized state of a linked abapGit repository.
type RepoStatus string

// Repo statuses. The backend reports single-letter codes; A maps to
// Active, E to Error, everything else (I, C, unknown) to Inactive.
const (
	RepoActive   RepoStatus = "Active"
	RepoError    RepoStatus = "Error"
	RepoInactive RepoStatus = "Inactive"
)

// RepoInfo is one linked abapGit repository.
type RepoInfo struct {
	Key        string     `json:"key"`
	URL        string     `json:"url"`
	Package    string     `json:"package"`
	BranchName string     `json:"branch_name,omitempty"`
	Status     RepoStatus `json:"status"`
	StatusText string     `json:"status_text,omitempty"`
	User       string     `json:"created_by,omitempty"`
}

// ParseRepoList parses the abapGit repository list.
func ParseRepoList(data []byte) ([]RepoInfo, error) {
	root, err := ParseXML(data)
	if err != nil {
		return nil, err
	}
	var repos []RepoInfo
	for _, repo := range root.FindAll("repository") {
		repos = append(repos, RepoInfo{
			Key:        repo.ChildText("key"),
			URL:        repo.ChildText("url"),
			Package:    repo.ChildText("package"),
			BranchName: repo.ChildText("branchName"),
			Status:     mapRepoStatus(repo.ChildText("status")),
			StatusText: repo.ChildText("statusText"),
			User:       repo.ChildText("createdBy"),
		})
	}
	return repos, nil
}

func mapRepoStatus(code string) RepoStatus {
	switch code {
	case "A":
		return RepoActive
	case "E":
		return RepoError
	default:
		return RepoInactive
	}
}
