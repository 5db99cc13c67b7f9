package pipeline

import (
	"context"
	"path/filepath"

	"github.com/quipucords/chaski/pkg/deps/rust"
	"github.com/quipucords/chaski/pkg/errors"
	"github.com/quipucords/chaski/pkg/provenance"
)

// ProvenanceResolver resolves the origin of lockfile packages.
// [provenance.Resolver] implements it.
type ProvenanceResolver interface {
	ResolveAll(ctx context.Context, pkgs []rust.Package) ([]provenance.Record, error)
}

// Provenance resolves the origin of every crate the vendored dependencies
// lock, reading each dependency's Cargo.lock from its cached source archive,
// and saves the report to store.
func (c *Controller) Provenance(ctx context.Context, co Checkout, resolver ProvenanceResolver, store provenance.Store) (*provenance.Report, error) {
	versions, err := c.PinnedVersions(ctx, co)
	if err != nil {
		return nil, err
	}
	manifests, _, err := c.vendor.Manifests(ctx, versions)
	if err != nil {
		return nil, err
	}

	var pkgs []rust.Package
	for _, m := range manifests {
		root := c.root
		if root == "" {
			root = filepath.Dir(m)
		}
		lockPath, err := rust.FindLockfile(m, root)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "lockfile for %s", m)
		}
		lock, err := rust.ReadLockfile(lockPath)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "read %s", lockPath)
		}
		c.logger.Info("reading lockfile", "path", lockPath, "packages", len(lock.Packages))
		pkgs = append(pkgs, lock.Registry()...)
	}

	records, err := resolver.ResolveAll(ctx, pkgs)
	if err != nil {
		return nil, err
	}
	report := provenance.NewReport(records)
	if unknown := report.Unknown(); len(unknown) > 0 {
		c.logger.Warn("crates without VCS info", "count", len(unknown))
	}
	if err := store.Save(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}
