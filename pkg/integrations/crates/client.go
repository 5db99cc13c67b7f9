package crates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quipucords/chaski/pkg/cache"
	chaskierrors "github.com/quipucords/chaski/pkg/errors"
	"github.com/quipucords/chaski/pkg/integrations"
)

const (
	// DefaultAPIURL is the crates.io API root.
	DefaultAPIURL = "https://crates.io/api/v1"

	// DefaultDownloadURL serves .crate archives without API rate limits.
	DefaultDownloadURL = "https://static.crates.io/crates"

	userAgent = "chaski/1.0 (https://github.com/quipucords/chaski)"
)

// CrateInfo holds metadata for a Rust crate from crates.io.
//
// Zero values: all string fields may be empty except Name. An empty
// Repository means the publisher did not declare one.
type CrateInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`     // Latest version (max_version)
	Repository  string `json:"repository"`  // Declared repository URL (may be empty)
	HomePage    string `json:"homepage"`    // Homepage URL (may be empty)
	Description string `json:"description"` // Crate description (may be empty)
}

// Client provides access to the crates.io package registry API.
//
// Note: crates.io requires a User-Agent header; this client sets one automatically.
type Client struct {
	*integrations.Client
	baseURL     string
	downloadURL string
}

// NewClient creates a crates.io client with the given cache backend.
// Empty URLs select the public crates.io endpoints.
func NewClient(backend cache.Cache, cacheTTL time.Duration, apiURL, downloadURL string) *Client {
	headers := map[string]string{"User-Agent": userAgent}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if downloadURL == "" {
		downloadURL = DefaultDownloadURL
	}
	return &Client{
		Client:      integrations.NewClient(backend, "crates:", cacheTTL, headers),
		baseURL:     strings.TrimSuffix(apiURL, "/"),
		downloadURL: strings.TrimSuffix(downloadURL, "/"),
	}
}

// FetchCrate retrieves metadata for a Rust crate from crates.io.
//
// Returns:
//   - CrateInfo populated with metadata on success
//   - PACKAGE_NOT_FOUND (wrapping [integrations.ErrNotFound]) if the crate doesn't exist
//   - [integrations.ErrNetwork] for HTTP failures (timeout, 5xx, etc.)
func (c *Client) FetchCrate(ctx context.Context, crate string, refresh bool) (*CrateInfo, error) {
	if err := chaskierrors.ValidateCratesPackageName(crate); err != nil {
		return nil, err
	}

	var info CrateInfo
	err := c.Cached(ctx, crate, refresh, &info, func() error {
		return c.fetch(ctx, crate, &info)
	})
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, chaskierrors.Wrap(chaskierrors.ErrCodePackageNotFound, err, "crate %s", crate)
		}
		return nil, err
	}
	return &info, nil
}

// ArchiveURLTemplate returns the download URL of crate's .crate archive with
// the version left as a %s verb.
func (c *Client) ArchiveURLTemplate(crate string) string {
	return fmt.Sprintf("%s/%s/%s-", c.downloadURL, crate, crate) + "%s.crate"
}

func (c *Client) fetch(ctx context.Context, crate string, info *CrateInfo) error {
	var data crateResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/crates/%s", c.baseURL, crate), &data); err != nil {
		return err
	}

	*info = CrateInfo{
		Name:        data.Crate.Name,
		Version:     data.Crate.MaxVersion,
		Description: data.Crate.Description,
		Repository:  data.Crate.Repository,
		HomePage:    data.Crate.HomePage,
	}
	return nil
}

type crateResponse struct {
	Crate struct {
		Name        string `json:"name"`
		MaxVersion  string `json:"max_version"`
		Description string `json:"description"`
		Repository  string `json:"repository"`
		HomePage    string `json:"homepage"`
	} `json:"crate"`
}
