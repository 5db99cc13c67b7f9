// Package manifest reads pinned dependency versions from an upstream
// repository at a specific commit.
//
// The upstream project keeps its locked requirements under lockfiles/. A
// [Fetcher] downloads those files at one commit, concatenates them and
// extracts the pin of every dependency in a [deps.Table]:
//
//	f := manifest.NewFetcher(gh, logger)
//	snap, err := f.FetchVersions(ctx, "quipucords/quipucords", sha, table, manifest.MissingWarn)
//
// Dependencies that are not pinned are left out of the snapshot. What else
// happens is decided by the [Missing] policy.
package manifest

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/quipucords/chaski/pkg/deps"
	"github.com/quipucords/chaski/pkg/deps/python"
	chaskierrors "github.com/quipucords/chaski/pkg/errors"
	"github.com/quipucords/chaski/pkg/integrations"
)

// DefaultFiles are the requirement files read from the upstream tree. The
// first is required; the rest are optional.
var DefaultFiles = []string{
	"lockfiles/requirements.txt",
	"lockfiles/requirements-build.txt",
}

// Missing selects what happens when a table dependency has no pin.
type Missing int

const (
	// MissingWarn logs a warning and continues.
	MissingWarn Missing = iota
	// MissingIgnore continues silently. Used for the baseline snapshot,
	// where a dependency may not have existed yet.
	MissingIgnore
	// MissingFail returns a MISSING_DEPENDENCY error.
	MissingFail
)

func (m Missing) String() string {
	switch m {
	case MissingWarn:
		return "warn"
	case MissingIgnore:
		return "ignore"
	case MissingFail:
		return "fail"
	default:
		return "unknown"
	}
}

// RawFetcher returns the contents of a file in a repository at a commit.
// [github.Client] implements it.
//
// [github.Client]: github.com/quipucords/chaski/pkg/integrations/github.Client
type RawFetcher interface {
	FetchRaw(ctx context.Context, repoPath, sha, path string) (string, error)
}

// Fetcher extracts version snapshots from upstream requirement files.
type Fetcher struct {
	raw    RawFetcher
	files  []string
	logger *log.Logger
}

// NewFetcher creates a Fetcher reading [DefaultFiles] through raw.
func NewFetcher(raw RawFetcher, logger *log.Logger) *Fetcher {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Fetcher{raw: raw, files: DefaultFiles, logger: logger}
}

// WithFiles returns a copy of f reading files instead of [DefaultFiles].
func (f *Fetcher) WithFiles(files ...string) *Fetcher {
	cp := *f
	cp.files = files
	return &cp
}

// FetchVersions downloads the requirement files of repoPath at sha and
// returns the pins of every dependency in table.
func (f *Fetcher) FetchVersions(ctx context.Context, repoPath, sha string, table *deps.Table, missing Missing) (deps.Snapshot, error) {
	text, err := f.fetchText(ctx, repoPath, sha)
	if err != nil {
		return nil, err
	}

	found, absent := python.Pins(text, table.Names())
	for _, name := range absent {
		switch missing {
		case MissingFail:
			return nil, chaskierrors.New(chaskierrors.ErrCodeMissingDependency,
				"%s@%s: no pin for %q", repoPath, shortSHA(sha), name)
		case MissingWarn:
			f.logger.Warn("couldn't find rust dependency", "dep", name, "repo", repoPath, "ref", shortSHA(sha))
			f.logger.Warn("if you are not building an older version, check the upstream dependencies and update the dependency table")
		case MissingIgnore:
			f.logger.Debug("dependency not pinned", "dep", name, "ref", shortSHA(sha))
		}
	}
	return found, nil
}

func (f *Fetcher) fetchText(ctx context.Context, repoPath, sha string) (string, error) {
	var b strings.Builder
	for i, file := range f.files {
		content, err := f.raw.FetchRaw(ctx, repoPath, sha, file)
		if err != nil {
			if i > 0 && errors.Is(err, integrations.ErrNotFound) {
				f.logger.Debug("optional requirements file not found", "file", file, "ref", shortSHA(sha))
				continue
			}
			return "", chaskierrors.Wrap(chaskierrors.ErrCodeInvalidManifest, err,
				"fetch %s from %s@%s", file, repoPath, shortSHA(sha))
		}
		b.WriteString(content)
		if !strings.HasSuffix(content, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

func shortSHA(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}
