package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/quipucords/chaski/pkg/deps"
	"github.com/quipucords/chaski/pkg/errors"
	"github.com/quipucords/chaski/pkg/integrations/github"
	"github.com/quipucords/chaski/pkg/manifest"
	"github.com/quipucords/chaski/pkg/observability"
	"github.com/quipucords/chaski/pkg/packaging"
	"github.com/quipucords/chaski/pkg/vendoring"
)

// CommitResolver turns a commit-ish into a full commit SHA.
type CommitResolver interface {
	ResolveCommit(ctx context.Context, owner, repo, commitish string) (string, error)
}

// VersionFetcher reads pinned dependency versions at a commit.
type VersionFetcher interface {
	FetchVersions(ctx context.Context, repoPath, sha string, table *deps.Table, missing manifest.Missing) (deps.Snapshot, error)
}

// Vendorer builds the vendor tarball.
type Vendorer interface {
	Assemble(ctx context.Context, versions deps.Snapshot) (*vendoring.Result, error)
	Manifests(ctx context.Context, versions deps.Snapshot) (manifests, skipped []string, err error)
}

// ArgRewriter updates Dockerfile build arguments.
type ArgRewriter interface {
	Quipucords(sha, committish string) error
	QPC(sha string) error
}

// RefStore records pinned refs.
type RefStore interface {
	SetRef(name, sha string) error
}

// Options wires a Controller. Resolver, Versions, Vendor and Args are
// required.
type Options struct {
	Resolver CommitResolver
	Versions VersionFetcher
	Vendor   Vendorer
	Args     ArgRewriter
	Uploader packaging.Uploader
	Table    *deps.Table
	Logger   *log.Logger

	// DependenciesDir bounds the upward Cargo.lock search for provenance.
	DependenciesDir string
}

// Controller runs update events.
type Controller struct {
	resolver CommitResolver
	versions VersionFetcher
	vendor   Vendorer
	args     ArgRewriter
	uploader packaging.Uploader
	table    *deps.Table
	logger   *log.Logger
	root     string
}

// New creates a controller. A nil Table selects [deps.DefaultTable] and a
// nil Uploader skips uploads.
func New(opts Options) (*Controller, error) {
	switch {
	case opts.Resolver == nil:
		return nil, errors.New(errors.ErrCodeInvalidInput, "pipeline: Resolver is required")
	case opts.Versions == nil:
		return nil, errors.New(errors.ErrCodeInvalidInput, "pipeline: Versions is required")
	case opts.Vendor == nil:
		return nil, errors.New(errors.ErrCodeInvalidInput, "pipeline: Vendor is required")
	case opts.Args == nil:
		return nil, errors.New(errors.ErrCodeInvalidInput, "pipeline: Args is required")
	}
	if opts.Table == nil {
		opts.Table = deps.DefaultTable()
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.Uploader == nil {
		opts.Uploader = packaging.Nop{Logger: opts.Logger}
	}
	return &Controller{
		resolver: opts.Resolver,
		versions: opts.Versions,
		vendor:   opts.Vendor,
		args:     opts.Args,
		uploader: opts.Uploader,
		table:    opts.Table,
		logger:   opts.Logger,
		root:     opts.DependenciesDir,
	}, nil
}

// run is the mutable state of one event.
type run struct {
	event   Event
	store   RefStore
	logger  *log.Logger
	owner   string
	repo    string
	rebuild bool
	outcome *Outcome
}

// Run drives ev to a terminal state. store receives the new ref once every
// other side effect succeeded. On failure the outcome is in StateAborted and
// the error is returned as well.
func (c *Controller) Run(ctx context.Context, ev Event, store RefStore) (*Outcome, error) {
	r := &run{
		event:   ev,
		store:   store,
		logger:  c.logger.WithPrefix(ev.Source),
		outcome: &Outcome{
			RunID:  uuid.NewString(),
			Source: ev.Source,
			OldRef: ev.CurrentRef,
		},
	}

	hooks := observability.Pipeline()
	hooks.OnSyncStart(ctx, ev.Source)
	start := time.Now()

	state := StateResolve
	for !state.Terminal() {
		next, err := c.step(ctx, state, r)
		if err != nil {
			r.outcome.State = StateAborted
			r.outcome.Err = err
			hooks.OnSyncComplete(ctx, ev.Source, StateAborted.String(), time.Since(start), err)
			return r.outcome, err
		}
		r.logger.Debug("transition", "from", state, "to", next)
		state = next
	}

	r.outcome.State = state
	hooks.OnSyncComplete(ctx, ev.Source, state.String(), time.Since(start), nil)
	return r.outcome, nil
}

func (c *Controller) step(ctx context.Context, s State, r *run) (State, error) {
	switch s {
	case StateResolve:
		return c.resolve(ctx, r)
	case StateDiff:
		return c.diff(ctx, r)
	case StateDecide:
		return c.decide(r)
	case StateCascade:
		return c.cascade(ctx, r)
	default:
		return StateAborted, errors.New(errors.ErrCodeInternal, "no transition from %s", s)
	}
}

func (c *Controller) resolve(ctx context.Context, r *run) (State, error) {
	owner, repo, err := github.ParseRepoURL(r.event.Repo)
	if err != nil {
		return StateAborted, errors.Wrap(errors.ErrCodeInvalidInput, err, "remote source %s", r.event.Source)
	}
	r.owner, r.repo = owner, repo

	sha, err := c.resolver.ResolveCommit(ctx, owner, repo, r.event.Committish)
	if err != nil {
		return StateAborted, err
	}
	r.outcome.NewRef = sha

	if sha == r.event.CurrentRef {
		r.logger.Info("nothing to update", "ref", sha)
		return StateNoChange, nil
	}
	r.logger.Info("updating ref", "from", r.event.CurrentRef, "to", sha, "committish", r.event.Committish)
	if r.event.Primary() {
		return StateDiff, nil
	}
	return StateCascade, nil
}

func (c *Controller) diff(ctx context.Context, r *run) (State, error) {
	repoPath := r.owner + "/" + r.repo
	r.logger.Info("checking if rust dependencies are updated")

	// The baseline may predate a dependency; that is not worth a warning.
	old, err := c.versions.FetchVersions(ctx, repoPath, r.event.CurrentRef, c.table, manifest.MissingIgnore)
	if err != nil {
		return StateAborted, err
	}
	cur, err := c.versions.FetchVersions(ctx, repoPath, r.outcome.NewRef, c.table, manifest.MissingWarn)
	if err != nil {
		return StateAborted, err
	}
	r.outcome.Old, r.outcome.New = old, cur
	return StateDecide, nil
}

func (c *Controller) decide(r *run) (State, error) {
	if r.outcome.Old.Equal(r.outcome.New) {
		r.logger.Info("rust libraries remain the same", "versions", r.outcome.New.String())
		return StateCascade, nil
	}
	r.outcome.Changes = r.outcome.Old.Diff(r.outcome.New)
	for _, ch := range r.outcome.Changes {
		r.logger.Info("rust dependency changed", "change", ch.String())
	}
	r.rebuild = true
	return StateCascade, nil
}

func (c *Controller) cascade(ctx context.Context, r *run) (State, error) {
	sha := r.outcome.NewRef
	switch r.event.Source {
	case SourceQuipucords:
		if err := c.args.Quipucords(sha, r.event.Committish); err != nil {
			return StateAborted, err
		}
	case SourceQPC:
		if err := c.args.QPC(sha); err != nil {
			return StateAborted, err
		}
	}

	final := StateUpdatedNoVendorChange
	if r.rebuild {
		res, err := c.vendor.Assemble(ctx, r.outcome.New)
		if err != nil {
			return StateAborted, err
		}
		r.outcome.Vendor = res
		if !res.NoOp() {
			if err := c.uploader.Upload(ctx, res.Tarball); err != nil {
				return StateAborted, err
			}
			final = StateUpdatedWithVendorRebuild
		}
	}

	if r.store != nil {
		if err := r.store.SetRef(r.event.Source, sha); err != nil {
			return StateAborted, err
		}
	}
	return final, nil
}
