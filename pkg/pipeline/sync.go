package pipeline

import (
	"context"

	"github.com/quipucords/chaski/pkg/deps"
	"github.com/quipucords/chaski/pkg/descriptor"
	"github.com/quipucords/chaski/pkg/errors"
	"github.com/quipucords/chaski/pkg/integrations/github"
	"github.com/quipucords/chaski/pkg/manifest"
	"github.com/quipucords/chaski/pkg/vendoring"
)

// Checkout is the build descriptor of a distgit checkout.
// [descriptor.Descriptor] implements it.
type Checkout interface {
	RefStore
	Sources() []descriptor.Source
	Source(name string) (descriptor.Source, bool)
	Committish(name string) (string, bool)
	Changed() bool
	Save() error
}

// SyncResult collects the outcomes of one Sync.
type SyncResult struct {
	Outcomes []*Outcome
	Saved    bool // container.yaml was rewritten
}

// Updated reports whether any source pinned a new ref.
func (r *SyncResult) Updated() bool {
	for _, o := range r.Outcomes {
		if o.State.Updated() {
			return true
		}
	}
	return false
}

// Sync runs every source that has a commit-ish in sources-version.yaml, in
// container.yaml order, and stops at the first aborted run. Refs pinned by
// runs that completed are saved even when a later run aborts.
func (c *Controller) Sync(ctx context.Context, co Checkout) (*SyncResult, error) {
	res := &SyncResult{}
	var runErr error
	for _, src := range co.Sources() {
		committish, ok := co.Committish(src.Name)
		if !ok {
			c.logger.Debug("source not tracked", "source", src.Name)
			continue
		}
		out, err := c.Run(ctx, Event{
			Source:     src.Name,
			Repo:       src.Repo,
			CurrentRef: src.Ref,
			Committish: committish,
		}, co)
		res.Outcomes = append(res.Outcomes, out)
		if err != nil {
			runErr = err
			break
		}
	}

	if co.Changed() {
		c.logger.Info("updating " + descriptor.ContainerFile)
		if err := co.Save(); err != nil {
			if runErr != nil {
				return res, runErr
			}
			return res, err
		}
		res.Saved = true
	}
	return res, runErr
}

// UpdateDockerfile rewrites every Dockerfile ARG from the refs currently
// pinned in container.yaml, whether or not they changed.
func (c *Controller) UpdateDockerfile(_ context.Context, co Checkout) error {
	src, ok := co.Source(SourceQuipucords)
	if !ok {
		return errors.New(errors.ErrCodeSourceNotFound, "no remote source %q", SourceQuipucords)
	}
	committish, _ := co.Committish(SourceQuipucords)
	if err := c.args.Quipucords(src.Ref, committish); err != nil {
		return err
	}

	qpc, ok := co.Source(SourceQPC)
	if !ok {
		return errors.New(errors.ErrCodeSourceNotFound, "no remote source %q", SourceQPC)
	}
	return c.args.QPC(qpc.Ref)
}

// PinnedVersions returns the native dependency versions pinned at the
// primary source's current ref.
func (c *Controller) PinnedVersions(ctx context.Context, co Checkout) (deps.Snapshot, error) {
	src, ok := co.Source(SourceQuipucords)
	if !ok {
		return nil, errors.New(errors.ErrCodeSourceNotFound, "no remote source %q", SourceQuipucords)
	}
	owner, repo, err := github.ParseRepoURL(src.Repo)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "remote source %s", src.Name)
	}
	return c.versions.FetchVersions(ctx, owner+"/"+repo, src.Ref, c.table, manifest.MissingWarn)
}

// UpdateRustDeps rebuilds the vendor tarball from the primary source's
// current ref and uploads it, without checking for drift.
func (c *Controller) UpdateRustDeps(ctx context.Context, co Checkout) (*vendoring.Result, error) {
	versions, err := c.PinnedVersions(ctx, co)
	if err != nil {
		return nil, err
	}
	c.logger.Info("using the following libs", "versions", versions.String())

	res, err := c.vendor.Assemble(ctx, versions)
	if err != nil {
		return nil, err
	}
	if res.NoOp() {
		return res, nil
	}
	if err := c.uploader.Upload(ctx, res.Tarball); err != nil {
		return nil, err
	}
	return res, nil
}
