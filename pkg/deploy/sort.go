package deploy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
)

// SortReposByDependency orders repos so that every repo comes after its
// depends_on targets (Kahn's algorithm). Ties break on the original file
// order, so the sort is stable and idempotent. Duplicate names, unknown
// dependency targets and cycles are errors.
func SortReposByDependency(repos []RepoConfig) ([]RepoConfig, error) {
	fail := func(format string, args ...any) error {
		return aerr.New(aerr.KindInternal, "SortRepos", fmt.Sprintf(format, args...))
	}

	position := make(map[string]int, len(repos))
	for i, repo := range repos {
		if _, dup := position[repo.Name]; dup {
			return nil, fail("duplicate repo name: %s", repo.Name)
		}
		position[repo.Name] = i
	}

	indegree := make(map[string]int, len(repos))
	dependents := make(map[string][]string, len(repos))
	for _, repo := range repos {
		indegree[repo.Name] += 0
		for _, dep := range repo.DependsOn {
			if _, known := position[dep]; !known {
				return nil, fail("repo %s depends on unknown repo %s", repo.Name, dep)
			}
			indegree[repo.Name]++
			dependents[dep] = append(dependents[dep], repo.Name)
		}
	}

	var ready []string
	for name, deg := range indegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}

	byPosition := func(names []string) {
		sort.Slice(names, func(i, j int) bool {
			return position[names[i]] < position[names[j]]
		})
	}
	byPosition(ready)

	sorted := make([]RepoConfig, 0, len(repos))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		sorted = append(sorted, repos[position[name]])

		released := false
		for _, dependent := range dependents[name] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, dependent)
				released = true
			}
		}
		if released {
			byPosition(ready)
		}
	}

	if len(sorted) != len(repos) {
		var cyclic []string
		for name, deg := range indegree {
			if deg > 0 {
				cyclic = append(cyclic, name)
			}
		}
		sort.Strings(cyclic)
		return nil, fail("dependency cycle involving: %s", strings.Join(cyclic, ", "))
	}
	return sorted, nil
}
