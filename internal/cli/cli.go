// Package cli implements the chaski command-line interface.
//
// Every command takes the path of a distgit checkout holding container.yaml,
// sources-version.yaml and the Dockerfile:
//   - update-remote-sources: bring every tracked source up to date
//   - update-dockerfile: rewrite the Dockerfile ARGs from the pinned refs
//   - update-rust-deps: rebuild and upload the vendored Rust dependencies
//   - provenance: report where every vendored crate comes from
//   - cache: manage the registry metadata cache
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/quipucords/chaski/internal/config"
	"github.com/quipucords/chaski/pkg/archive"
	"github.com/quipucords/chaski/pkg/buildinfo"
	"github.com/quipucords/chaski/pkg/cache"
	"github.com/quipucords/chaski/pkg/deps"
	"github.com/quipucords/chaski/pkg/descriptor"
	"github.com/quipucords/chaski/pkg/dockerfile"
	"github.com/quipucords/chaski/pkg/integrations"
	"github.com/quipucords/chaski/pkg/integrations/github"
	"github.com/quipucords/chaski/pkg/manifest"
	"github.com/quipucords/chaski/pkg/observability"
	"github.com/quipucords/chaski/pkg/packaging"
	"github.com/quipucords/chaski/pkg/pipeline"
	"github.com/quipucords/chaski/pkg/vendoring"
)

// =============================================================================
// Constants
// =============================================================================

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configFile string
	noCache    bool
	noUpload   bool
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "chaski",
		Short: "chaski keeps a downstream container build in sync with its upstream sources",
		Long: `chaski updates the remote sources of a distgit checkout, rewrites its
Dockerfile build arguments and vendors the Rust dependencies of the pinned
Python packages into a tarball for the lookaside cache.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.configFile, "config", "", "config file (default $XDG_CONFIG_HOME/chaski/config.yaml)")
	flags.BoolVar(&c.noCache, "no-cache", false, "disable the registry metadata cache")
	flags.BoolVar(&c.noUpload, "no-upload", false, "build the vendor tarball without uploading it")

	root.AddCommand(c.updateRemoteSourcesCommand())
	root.AddCommand(c.updateDockerfileCommand())
	root.AddCommand(c.updateRustDepsCommand())
	root.AddCommand(c.provenanceCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the configuration and applies flag overrides.
func (c *CLI) setup() error {
	cfg, path, err := config.Load(config.LoadOptions{File: c.configFile})
	if err != nil {
		return err
	}
	if c.noUpload {
		cfg.Upload = false
	}
	c.cfg = cfg
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}
	if c.Logger.GetLevel() <= log.DebugLevel {
		observability.NewLogHooks(c.Logger).Install()
	}
	return nil
}

// =============================================================================
// Controller Factory
// =============================================================================

// workspace is everything one command needs for a distgit checkout.
type workspace struct {
	dir        string
	desc       *descriptor.Descriptor
	depsDir    string
	controller *pipeline.Controller
}

// newWorkspace loads the checkout at dir and wires a controller for it.
func (c *CLI) newWorkspace(dir string) (*workspace, error) {
	if c.cfg == nil {
		c.cfg = config.Default()
	}
	desc, err := descriptor.Load(dir)
	if err != nil {
		return nil, err
	}

	depsDir := c.cfg.DependenciesPath(dir)
	gh := github.NewClient(c.cfg.GitHub.Token, c.cfg.GitHub.APIURL, c.cfg.GitHub.RawURL)
	archives := archive.New(depsDir, integrations.NewClient(nil, "", 0, nil), c.Logger)
	table := deps.DefaultTable()

	vendorer := vendoring.CargoVendorer{Bin: c.cfg.CargoBin, Logger: c.Logger}

	var uploader packaging.Uploader = packaging.Nop{Logger: c.Logger}
	if c.cfg.Upload {
		uploader = packaging.RHPKG{Bin: c.cfg.RHPKGBin, Dir: dir, Logger: c.Logger}
	}

	ctrl, err := pipeline.New(pipeline.Options{
		Resolver:        gh,
		Versions:        manifest.NewFetcher(gh, c.Logger),
		Vendor:          vendoring.NewAssembler(depsDir, table, archives, vendorer, c.Logger),
		Args:            dockerfile.NewRewriter(filepath.Join(dir, dockerfile.FileName), c.Logger),
		Uploader:        uploader,
		Table:           table,
		Logger:          c.Logger,
		DependenciesDir: depsDir,
	})
	if err != nil {
		return nil, err
	}
	return &workspace{
		dir:        dir,
		desc:       desc,
		depsDir:    depsDir,
		controller: ctrl,
	}, nil
}

// openCache returns the registry metadata cache selected by the
// configuration and --no-cache.
func (c *CLI) openCache(ctx context.Context) (cache.Cache, error) {
	if c.cfg == nil {
		c.cfg = config.Default()
	}
	return cache.Open(ctx, c.noCache, c.cfg.Cache.RedisURL, c.cfg.Cache.Dir)
}
