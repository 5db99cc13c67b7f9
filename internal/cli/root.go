package cli

import (
	"github.com/spf13/cobra"

	"github.com/quipucords/chaski/pkg/pipeline"
)

const (
	rhpkgBuild   = "rhpkg container-build --target=<target-build>"
	rhpkgExample = "rhpkg container-build --target=discovery-1-rhel-9-containers-candidate"
)

// updateRemoteSourcesCommand creates the full update cascade command.
func (c *CLI) updateRemoteSourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update-remote-sources <distgit-path>",
		Short: "Update remote sources, Dockerfile and vendored dependencies",
		Long: `Resolve the commit-ish of every source listed in sources-version.yaml,
pin the new commit in container.yaml, update the Dockerfile build arguments
and, when the Rust dependencies of quipucords-server changed, rebuild and
upload the vendored dependency tarball.`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: completeDistgit,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.newWorkspace(args[0])
			if err != nil {
				return err
			}

			prog := newProgress(c.Logger)
			res, err := ws.controller.Sync(cmd.Context(), ws.desc)
			if res != nil {
				for _, o := range res.Outcomes {
					printOutcome(o)
				}
			}
			if err != nil {
				return err
			}
			prog.done("Sync finished")

			if !res.Updated() {
				printInfo("Nothing to update. Go treat yourself with some coffee")
				return nil
			}
			printDownstreamInstructions(ws.dir)
			return nil
		},
	}
}

// updateDockerfileCommand creates the forced Dockerfile rewrite command.
func (c *CLI) updateDockerfileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update-dockerfile <distgit-path>",
		Short: "Rewrite the Dockerfile build arguments from the pinned refs",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: completeDistgit,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.newWorkspace(args[0])
			if err != nil {
				return err
			}
			if err := ws.controller.UpdateDockerfile(cmd.Context(), ws.desc); err != nil {
				return err
			}
			printSuccess("Dockerfile updated")
			printFile(ws.dir)
			return nil
		},
	}
}

// updateRustDepsCommand creates the forced vendor rebuild command.
func (c *CLI) updateRustDepsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update-rust-deps <distgit-path>",
		Short: "Rebuild the vendored Rust dependencies from the pinned quipucords-server commit",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: completeDistgit,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.newWorkspace(args[0])
			if err != nil {
				return err
			}

			spinner := newSpinnerWithContext(cmd.Context(), "Vendoring Rust dependencies...")
			spinner.Start()
			res, err := ws.controller.UpdateRustDeps(cmd.Context(), ws.desc)
			if err != nil {
				spinner.StopWithError("Vendoring failed")
				return err
			}
			if res.NoOp() {
				spinner.Stop()
				printInfo("Nothing to update.")
				for _, name := range res.Skipped {
					printDetail("%s is below its minimum vendored version", name)
				}
				return nil
			}
			spinner.StopWithSuccess("Vendored dependencies ready")
			printFile(res.Tarball)
			for _, m := range res.Manifests {
				printDetail("%s", m)
			}
			return nil
		},
	}
}

func printOutcome(o *pipeline.Outcome) {
	switch o.State {
	case pipeline.StateNoChange:
		printInfo("[%s] Nothing to update", o.Source)
	case pipeline.StateAborted:
		printError("[%s] %s", o.Source, o.Err)
	default:
		printSuccess("[%s] updated ref to %s", o.Source, StyleHighlight.Render(o.NewRef))
		for _, ch := range o.Changes {
			printDetail("%s", ch)
		}
		if t := o.Tarball(); t != "" {
			printFile(t)
		}
	}
}

// printDownstreamInstructions reminds the operator how to start the
// downstream build.
func printDownstreamInstructions(dir string) {
	printNewline()
	printSuccess("You are almost ready for a downstream build!")
	printKeyValue("Check", "the changes on "+dir+", commit and push")
	printNextStep("Then run", rhpkgBuild+" [--scratch if this is still in development]")
	printNextStep("Example", rhpkgExample)
}
