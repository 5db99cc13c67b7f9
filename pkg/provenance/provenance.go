package provenance

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/quipucords/chaski/pkg/archive"
	"github.com/quipucords/chaski/pkg/deps/rust"
	"github.com/quipucords/chaski/pkg/errors"
	"github.com/quipucords/chaski/pkg/integrations"
	"github.com/quipucords/chaski/pkg/integrations/crates"
)

// Unknown is the commit recorded when a crate carries no VCS info.
const Unknown = "unknown"

// VCSInfoFile is the file cargo package writes at the crate root.
const VCSInfoFile = ".cargo_vcs_info.json"

// Registry is the subset of the crates.io client the resolver needs.
type Registry interface {
	FetchCrate(ctx context.Context, crate string, refresh bool) (*crates.CrateInfo, error)
	ArchiveURLTemplate(crate string) string
}

// Record is the provenance of one crate version.
type Record struct {
	Name       string `json:"name" bson:"name"`
	Version    string `json:"version" bson:"version"`
	Repository string `json:"repository" bson:"repository"`
	Commit     string `json:"commit" bson:"commit"`
	PathInVCS  string `json:"path_in_vcs,omitempty" bson:"path_in_vcs,omitempty"`
	Source     string `json:"source" bson:"source"`
}

// Known reports whether the commit was recovered.
func (r Record) Known() bool { return r.Commit != Unknown }

// Resolver resolves crate provenance.
type Resolver struct {
	registry Registry
	archives *archive.Cache
	origins  Origins
	logger   *log.Logger
}

// NewResolver creates a resolver. archives should be rooted apart from the
// source archive cache. A nil trusted list selects [DefaultTrustedOrigins].
func NewResolver(registry Registry, archives *archive.Cache, trusted []string, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Resolver{registry: registry, archives: archives.WithKind("crate"), origins: NewOrigins(trusted), logger: logger}
}

// Resolve returns the provenance of pkg.
func (r *Resolver) Resolve(ctx context.Context, pkg rust.Package) (*Record, error) {
	if !r.origins.Trusted(pkg.Source) {
		return nil, untrusted(pkg)
	}

	info, err := r.registry.FetchCrate(ctx, pkg.Name, false)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResolution, err, "crate metadata for %s", pkg.Name)
	}
	rec := &Record{
		Name:       pkg.Name,
		Version:    pkg.Version,
		Repository: integrations.CloneURL(info.Repository),
		Commit:     Unknown,
		Source:     pkg.Source,
	}
	if rec.Repository == "" {
		r.logger.Warn("crate declares no repository", "crate", pkg.Name)
	}

	res, err := r.archives.Obtain(ctx, pkg.Name, pkg.Version, r.registry.ArchiveURLTemplate(pkg.Name))
	if err != nil {
		return nil, err
	}

	vcs, err := readVCSInfo(filepath.Join(res.Dir, VCSInfoFile))
	switch {
	case err != nil:
		r.logger.Warn("unreadable VCS info", "crate", pkg.Name, "version", pkg.Version, "err", err)
	case vcs == nil || vcs.Git.SHA1 == "":
		r.logger.Info("no VCS info embedded", "crate", pkg.Name, "version", pkg.Version)
	default:
		rec.Commit = vcs.Git.SHA1
		rec.PathInVCS = vcs.PathInVCS
	}
	return rec, nil
}

// ResolveAll resolves every registry package in pkgs, in order. Packages
// without a source (workspace and path members) are skipped and duplicate
// name/version pairs are resolved once.
func (r *Resolver) ResolveAll(ctx context.Context, pkgs []rust.Package) ([]Record, error) {
	seen := make(map[string]bool, len(pkgs))
	var out []Record
	for _, p := range pkgs {
		if p.Source == "" || seen[p.Key()] {
			continue
		}
		seen[p.Key()] = true

		rec, err := r.Resolve(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

type vcsInfo struct {
	Git struct {
		SHA1  string `json:"sha1"`
		Dirty bool   `json:"dirty"`
	} `json:"git"`
	PathInVCS string `json:"path_in_vcs"`
}

// readVCSInfo returns nil, nil when the file does not exist.
func readVCSInfo(path string) (*vcsInfo, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var info vcsInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
