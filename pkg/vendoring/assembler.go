package vendoring

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/quipucords/chaski/pkg/archive"
	"github.com/quipucords/chaski/pkg/deps"
	"github.com/quipucords/chaski/pkg/deps/rust"
	"github.com/quipucords/chaski/pkg/errors"
	"github.com/quipucords/chaski/pkg/observability"
	"github.com/quipucords/chaski/pkg/provenance"
)

const (
	// VendorDir is the vendor tree directory name under the dependencies root.
	VendorDir = "vendor"

	// TarballName is the vendor tarball file name under the dependencies root.
	TarballName = "cargo_vendor.tar.gz"
)

// Result describes one assembly.
type Result struct {
	Tarball   string   // empty for a no-op
	VendorDir string   // empty for a no-op
	Manifests []string // primary first
	Skipped   []string // dependencies below their minimum version
}

// NoOp reports whether there was nothing to vendor.
func (r *Result) NoOp() bool { return len(r.Manifests) == 0 }

// Assembler builds the vendor tarball.
type Assembler struct {
	table    *deps.Table
	archives *archive.Cache
	vendorer Vendorer
	origins  provenance.Origins
	root     string
	logger   *log.Logger
}

// NewAssembler creates an assembler writing to root, which is usually the
// same directory the archive cache lives in. Crates are only vendored from
// [provenance.DefaultTrustedOrigins].
func NewAssembler(root string, table *deps.Table, archives *archive.Cache, vendorer Vendorer, logger *log.Logger) *Assembler {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Assembler{
		table:    table,
		archives: archives,
		vendorer: vendorer,
		origins:  provenance.NewOrigins(nil),
		root:     root,
		logger:   logger,
	}
}

// VendorPath returns the vendor tree path.
func (a *Assembler) VendorPath() string { return filepath.Join(a.root, VendorDir) }

// TarballPath returns the tarball path.
func (a *Assembler) TarballPath() string { return filepath.Join(a.root, TarballName) }

// Manifests returns the Cargo manifests to vendor for versions, obtaining
// the source archives as needed. Dependencies below their minimum version
// are returned in skipped and never reach the archive cache. Every manifest
// must come with a Cargo.lock whose crates all come from a trusted origin.
func (a *Assembler) Manifests(ctx context.Context, versions deps.Snapshot) (manifests, skipped []string, err error) {
	for _, name := range versions.InOrder(a.table) {
		version := versions[name]
		spec, ok := a.table.Get(name)
		if !ok {
			return nil, nil, errors.New(errors.ErrCodeInvalidInput, "no dependency spec for %q", name)
		}
		vendored, err := spec.Vendored(version)
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidVersion, err, "%s", name)
		}
		if !vendored {
			a.logger.Info("skipping dependency without rust code", "dep", name, "version", version, "min", spec.MinVendored)
			skipped = append(skipped, name)
			continue
		}

		res, err := a.archives.Obtain(ctx, name, version, spec.SourceArchiveURL)
		if err != nil {
			return nil, nil, err
		}
		manifest := filepath.Join(res.Dir, filepath.FromSlash(spec.ManifestPath))
		if _, err := os.Stat(manifest); err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeVendorStep, err, "%s %s has no %s", name, version, spec.ManifestPath)
		}
		if err := a.checkOrigins(manifest, res.Dir); err != nil {
			return nil, nil, err
		}
		manifests = append(manifests, manifest)
	}
	return manifests, skipped, nil
}

// Assemble vendors every eligible dependency in versions into a fresh vendor
// tree and writes the tarball. When nothing is eligible it returns a no-op
// result and leaves the filesystem alone.
func (a *Assembler) Assemble(ctx context.Context, versions deps.Snapshot) (*Result, error) {
	manifests, skipped, err := a.Manifests(ctx, versions)
	if err != nil {
		return nil, err
	}
	if len(manifests) == 0 {
		a.logger.Info("nothing to vendor", "versions", versions.String())
		return &Result{Skipped: skipped}, nil
	}

	hooks := observability.Pipeline()
	hooks.OnVendorStart(ctx, len(manifests))
	start := time.Now()

	res, err := a.build(ctx, manifests)
	if err != nil {
		hooks.OnVendorComplete(ctx, "", time.Since(start), err)
		return nil, err
	}
	res.Skipped = skipped
	hooks.OnVendorComplete(ctx, res.Tarball, time.Since(start), nil)
	return res, nil
}

// checkOrigins verifies the lockfile governing manifest. Without a lockfile
// cargo would resolve crates on its own, so that is refused as well.
func (a *Assembler) checkOrigins(manifest, root string) error {
	path, err := rust.FindLockfile(manifest, root)
	if err != nil {
		return errors.Wrap(errors.ErrCodeUntrustedOrigin, err, "cannot verify crate origins of %s", manifest)
	}
	lock, err := rust.ReadLockfile(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidManifest, err, "%s", path)
	}
	if err := a.origins.Check(lock); err != nil {
		a.logger.Error("refusing to vendor", "lockfile", path, "err", err)
		return err
	}
	return nil
}

func (a *Assembler) build(ctx context.Context, manifests []string) (*Result, error) {
	vendorDir, tarball := a.VendorPath(), a.TarballPath()

	if err := os.RemoveAll(vendorDir); err != nil {
		return nil, errors.Wrap(errors.ErrCodeVendorStep, err, "remove %s", vendorDir)
	}
	if err := os.Remove(tarball); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeVendorStep, err, "remove %s", tarball)
	}
	if err := os.MkdirAll(a.root, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create %s", a.root)
	}

	a.logger.Info("vendoring rust dependencies", "manifests", len(manifests))
	if err := a.vendorer.Vendor(ctx, manifests[0], manifests[1:], vendorDir); err != nil {
		if errors.GetCode(err) == "" {
			err = errors.Wrap(errors.ErrCodeVendorStep, err, "vendor %s", manifests[0])
		}
		return nil, err
	}

	a.logger.Info("generating tarball", "path", tarball)
	if err := WriteTarball(vendorDir, tarball); err != nil {
		return nil, errors.Wrap(errors.ErrCodeVendorStep, err, "write %s", tarball)
	}
	return &Result{Tarball: tarball, VendorDir: vendorDir, Manifests: manifests}, nil
}
