package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/quipucords/chaski/pkg/archive"
	"github.com/quipucords/chaski/pkg/integrations"
	"github.com/quipucords/chaski/pkg/integrations/crates"
	"github.com/quipucords/chaski/pkg/provenance"
)

// provenanceCommand creates the crate provenance report command.
func (c *CLI) provenanceCommand() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "provenance <distgit-path>",
		Short: "Report the upstream repository and commit of every vendored crate",
		Long: `Read the Cargo.lock of every vendored dependency at the pinned
quipucords-server commit and resolve each registry crate to the repository
and commit it was published from. The report is written to
cargo_provenance.json in the dependencies directory and, when
provenance.mongo_uri is configured, to MongoDB.`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: completeDistgit,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := c.newWorkspace(args[0])
			if err != nil {
				return err
			}

			backend, err := c.openCache(ctx)
			if err != nil {
				return err
			}
			defer backend.Close()

			store, err := c.openStore(ctx, ws.depsDir)
			if err != nil {
				return err
			}
			defer store.Close(context.WithoutCancel(ctx))

			registry := crates.NewClient(backend, c.cfg.Cache.TTL, c.cfg.Crates.APIURL, c.cfg.Crates.DownloadURL)
			crateArchives := archive.New(filepath.Join(c.cfg.Cache.Dir, "crates"), integrations.NewClient(nil, "", 0, nil), c.Logger)
			resolver := provenance.NewResolver(refreshing{registry, refresh}, crateArchives, provenance.DefaultTrustedOrigins, c.Logger)

			spinner := newSpinnerWithContext(ctx, "Resolving crate provenance...")
			spinner.Start()
			prog := newProgress(c.Logger)
			report, err := ws.controller.Provenance(ctx, ws.desc, resolver, store)
			if err != nil {
				spinner.StopWithError("Provenance resolution failed")
				return err
			}
			spinner.Stop()
			prog.done("Provenance resolved")

			printSuccess("Resolved %s crates", StyleNumber.Render(fmt.Sprint(len(report.Records))))
			printKeyValue("Run", report.RunID)
			printFile(filepath.Join(ws.depsDir, provenance.ReportFile))
			if unknown := report.Unknown(); len(unknown) > 0 {
				printWarning("%d crates have no VCS information", len(unknown))
				for _, r := range unknown {
					printDetail("%s %s (%s)", r.Name, r.Version, r.Repository)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached registry metadata")
	return cmd
}

// openStore returns the report store: the JSON file, plus MongoDB when
// configured.
func (c *CLI) openStore(ctx context.Context, depsDir string) (provenance.Store, error) {
	file := provenance.NewFileStore(filepath.Join(depsDir, provenance.ReportFile))
	if c.cfg.Provenance.MongoURI == "" {
		return file, nil
	}
	mongo, err := provenance.NewMongoStore(ctx, c.cfg.Provenance.MongoURI, c.cfg.Provenance.MongoDatabase)
	if err != nil {
		return nil, err
	}
	return provenance.MultiStore{file, mongo}, nil
}

// refreshing forces metadata refetches when --refresh is set.
type refreshing struct {
	*crates.Client
	refresh bool
}

func (r refreshing) FetchCrate(ctx context.Context, crate string, refresh bool) (*crates.CrateInfo, error) {
	return r.Client.FetchCrate(ctx, crate, refresh || r.refresh)
}
