package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/otiai10/copy"

	"github.com/quipucords/chaski/pkg/errors"
	"github.com/quipucords/chaski/pkg/observability"
)

// Downloader streams the body of url into w.
// [integrations.Client] implements it.
//
// [integrations.Client]: github.com/quipucords/chaski/pkg/integrations.Client
type Downloader interface {
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}

// Resolved is an extracted archive in the cache.
type Resolved struct {
	Name    string
	Version string
	Dir     string
	Cached  bool // true when no download was needed
}

// Cache stores extracted archives under a root directory.
type Cache struct {
	root   string
	kind   string
	dl     Downloader
	logger *log.Logger
}

// New creates a cache rooted at root. The directory is created on first use.
func New(root string, dl Downloader, logger *log.Logger) *Cache {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Cache{root: root, kind: "archive", dl: dl, logger: logger}
}

// WithKind returns a copy of c reporting cache events under kind.
func (c *Cache) WithKind(kind string) *Cache {
	cp := *c
	cp.kind = kind
	return &cp
}

// Root returns the cache root directory.
func (c *Cache) Root() string { return c.root }

// Path returns where name at version is (or would be) cached.
func (c *Cache) Path(name, version string) string {
	return filepath.Join(c.root, name+"-"+version)
}

// Obtain returns the cached directory for name at version, downloading
// fmt.Sprintf(urlTemplate, version) and extracting it on a miss.
func (c *Cache) Obtain(ctx context.Context, name, version, urlTemplate string) (*Resolved, error) {
	if err := validateKey(name, version); err != nil {
		return nil, err
	}
	dest := c.Path(name, version)

	if info, err := os.Stat(dest); err == nil {
		if !info.IsDir() {
			return nil, errors.New(errors.ErrCodeMalformedArchive, "%s exists and is not a directory", dest)
		}
		observability.Cache().OnCacheHit(ctx, c.kind)
		c.logger.Info("using cached archive", "dep", name, "version", version)
		return &Resolved{Name: name, Version: version, Dir: dest, Cached: true}, nil
	}
	observability.Cache().OnCacheMiss(ctx, c.kind)

	url := fmt.Sprintf(urlTemplate, version)
	c.logger.Info("downloading archive", "dep", name, "version", version, "url", url)

	if err := os.MkdirAll(c.root, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create %s", c.root)
	}

	scratch, err := os.MkdirTemp("", "chaski-"+name+"-")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create scratch dir")
	}
	defer os.RemoveAll(scratch)

	size, err := c.download(ctx, url, filepath.Join(scratch, "archive.tar.gz"))
	if err != nil {
		return nil, err
	}

	tree := filepath.Join(scratch, "tree")
	if err := extract(filepath.Join(scratch, "archive.tar.gz"), tree); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedArchive, err, "%s-%s from %s", name, version, url)
	}
	top, err := singleRoot(tree)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedArchive, err, "%s-%s from %s", name, version, url)
	}

	if err := c.place(top, dest); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "move %s-%s into cache", name, version)
	}
	observability.Cache().OnCacheSet(ctx, c.kind, int(size))
	return &Resolved{Name: name, Version: version, Dir: dest}, nil
}

func (c *Cache) download(ctx context.Context, url, path string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInternal, err, "create %s", path)
	}
	n, err := c.dl.Download(ctx, url, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeDownload, err, "download %s", url)
	}
	return n, nil
}

// place moves src to dest. When a plain rename fails (scratch and cache on
// different filesystems) the tree is copied to a staging directory next to
// dest and renamed from there.
func (c *Cache) place(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	staging, err := os.MkdirTemp(c.root, ".staging-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(staging)

	tmp := filepath.Join(staging, filepath.Base(dest))
	if err := copy.Copy(src, tmp); err != nil {
		return err
	}
	return os.Rename(tmp, dest)
}

// singleRoot returns the only entry of dir, which must be a directory.
func singleRoot(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	if len(entries) != 1 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		return "", fmt.Errorf("expected a single top-level directory, found %d entries [%s]",
			len(entries), strings.Join(names, ", "))
	}
	if !entries[0].IsDir() {
		return "", fmt.Errorf("top-level entry %q is not a directory", entries[0].Name())
	}
	return filepath.Join(dir, entries[0].Name()), nil
}

func validateKey(name, version string) error {
	if err := errors.ValidatePackageName(name); err != nil {
		return err
	}
	if strings.ContainsAny(name, `/`) {
		return errors.New(errors.ErrCodeInvalidPackage, "package name %q contains a path separator", name)
	}
	return errors.ValidateVersion(version)
}
