package client

import (
	"context"
	"net/url"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
	"github.com/erpl/erpl-adt/pkg/adt/codec"
	"github.com/erpl/erpl-adt/pkg/adt/types"
	"github.com/erpl/erpl-adt/pkg/logger"
)

const reposEndpoint = "/sap/bc/adt/abapgit/repos"

// ListRepos fetches all abapGit repositories linked on the system.
func (c *Client) ListRepos(ctx context.Context) ([]codec.RepoInfo, error) {
	resp, err := c.sess.Get(ctx, reposEndpoint, map[string]string{"Accept": "application/xml"})
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode) {
		return nil, statusError("ListRepos", reposEndpoint, aerr.KindInternal, resp)
	}
	return codec.ParseRepoList(resp.Body)
}

// FindRepoByURL returns the linked repo with the given URL, or nil.
func (c *Client) FindRepoByURL(ctx context.Context, repoURL types.RepoUrl) (*codec.RepoInfo, error) {
	repos, err := c.ListRepos(ctx)
	if err != nil {
		return nil, err
	}
	for i := range repos {
		if repos[i].URL == repoURL.String() {
			return &repos[i], nil
		}
	}
	return nil, nil
}

// CloneRepo links and clones a repository into a package. The backend may
// answer synchronously (200/201 with a repo list) or with 202+Location.
func (c *Client) CloneRepo(ctx context.Context, pkg types.PackageName, repoURL types.RepoUrl, branch types.BranchRef) (*codec.RepoInfo, error) {
	body := codec.BuildRepoCloneXML(pkg, repoURL, branch)
	resp, err := c.sess.Post(ctx, reposEndpoint, []byte(body), "application/xml", nil)
	if err != nil {
		return nil, err
	}
	data, err := c.completeAsync(ctx, "CloneRepo", reposEndpoint, aerr.KindCloneError, resp)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if repo := pickClonedRepo(data, repoURL); repo != nil {
			return repo, nil
		}
	}
	// The async body did not name the repo; resolve it by URL.
	repo, err := c.FindRepoByURL(ctx, repoURL)
	if err != nil {
		return nil, err
	}
	if repo == nil {
		return nil, aerr.New(aerr.KindCloneError, "CloneRepo", "repository not linked after clone").
			WithEndpoint(reposEndpoint)
	}
	return repo, nil
}

// pickClonedRepo resolves the freshly cloned repo from a synchronous
// response body. A single-repo response is taken regardless of URL match
// (with a warning when it differs); a multi-repo response must match.
func pickClonedRepo(data []byte, repoURL types.RepoUrl) *codec.RepoInfo {
	repos, err := codec.ParseRepoList(data)
	if err != nil || len(repos) == 0 {
		return nil
	}
	if len(repos) == 1 {
		if repos[0].URL != repoURL.String() {
			logger.Warnf("clone response names %s instead of requested %s", repos[0].URL, repoURL)
		}
		return &repos[0]
	}
	for i := range repos {
		if repos[i].URL == repoURL.String() {
			return &repos[i]
		}
	}
	return nil
}

// PullRepo pulls the latest state of a linked repository.
func (c *Client) PullRepo(ctx context.Context, key types.RepoKey) error {
	endpoint := reposEndpoint + "/" + url.PathEscape(key.String()) + "/pull"
	resp, err := c.sess.Post(ctx, endpoint, nil, "application/xml", nil)
	if err != nil {
		return err
	}
	_, err = c.completeAsync(ctx, "PullRepo", endpoint, aerr.KindPullError, resp)
	return err
}

// UnlinkRepo removes the link between a repository and its package. The
// package contents stay on the system.
func (c *Client) UnlinkRepo(ctx context.Context, key types.RepoKey) error {
	endpoint := reposEndpoint + "/" + url.PathEscape(key.String())
	resp, err := c.sess.Delete(ctx, endpoint, nil)
	if err != nil {
		return err
	}
	_, err = c.completeAsync(ctx, "UnlinkRepo", endpoint, aerr.KindInternal, resp)
	return err
}
