package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/quipucords/chaski/pkg/errors"
	"github.com/quipucords/chaski/pkg/integrations"
)

const (
	// DefaultAPIURL is the GitHub REST API root.
	DefaultAPIURL = "https://api.github.com"

	// DefaultRawURL serves file contents at a given ref.
	DefaultRawURL = "https://raw.githubusercontent.com"
)

// Client provides access to the GitHub API for commit resolution and raw
// file downloads. It never caches: refs are mutable.
type Client struct {
	*integrations.Client
	baseURL string
	rawURL  string
}

// NewClient creates a GitHub client. Pass an empty token for unauthenticated
// requests and empty URLs for the public GitHub endpoints.
func NewClient(token, apiURL, rawURL string) *Client {
	headers := map[string]string{"Accept": "application/vnd.github.v3+json"}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if rawURL == "" {
		rawURL = DefaultRawURL
	}
	return &Client{
		Client:  integrations.NewClient(nil, "github:", 0, headers),
		baseURL: strings.TrimSuffix(apiURL, "/"),
		rawURL:  strings.TrimSuffix(rawURL, "/"),
	}
}

// ResolveCommit returns the full commit SHA that commitish points to in
// owner/repo. Each call hits the API.
func (c *Client) ResolveCommit(ctx context.Context, owner, repo, commitish string) (string, error) {
	if err := ValidateRepoRef(owner, repo); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "resolve %s/%s", owner, repo)
	}
	if err := errors.ValidateCommittish(commitish); err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/repos/%s/%s/commits/%s", c.baseURL, owner, repo, integrations.PathEscape(commitish))

	var data commitResponse
	if err := c.Get(ctx, url, &data); err != nil {
		return "", errors.Wrap(errors.ErrCodeResolution, err, "resolve %s/%s@%s", owner, repo, commitish)
	}
	if !validSHA.MatchString(data.SHA) {
		return "", errors.New(errors.ErrCodeResolution, "resolve %s/%s@%s: %s returned invalid sha %q", owner, repo, commitish, url, data.SHA)
	}
	return data.SHA, nil
}

// FetchRaw returns the contents of path in repoPath ("owner/repo") at commit sha.
func (c *Client) FetchRaw(ctx context.Context, repoPath, sha, path string) (string, error) {
	if err := errors.ValidatePath(path); err != nil {
		return "", err
	}
	return c.GetText(ctx, fmt.Sprintf("%s/%s/%s/%s", c.rawURL, repoPath, sha, path))
}
