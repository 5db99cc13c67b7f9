// Package dockerfile rewrites ARG defaults in the downstream Dockerfile.
package dockerfile

import (
	"io"
	"os"
	"regexp"

	"github.com/charmbracelet/log"

	"github.com/quipucords/chaski/pkg/errors"
)

// FileName is the Dockerfile name inside the distgit checkout.
const FileName = "Dockerfile"

// Build argument names.
const (
	ArgQuipucordsCommit = "QUIPUCORDS_COMMIT"
	ArgDiscoveryVersion = "DISCOVERY_VERSION"
	ArgQPCCommit        = "QPC_COMMIT"
)

var releaseVersion = regexp.MustCompile(`^\d+\.\d+\.\d+`)

// IsReleaseVersion reports whether committish starts with X.Y.Z.
func IsReleaseVersion(committish string) bool {
	return releaseVersion.MatchString(committish)
}

// Rewriter edits one Dockerfile.
type Rewriter struct {
	path   string
	logger *log.Logger
}

// NewRewriter creates a rewriter for the Dockerfile at path.
func NewRewriter(path string, logger *log.Logger) *Rewriter {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Rewriter{path: path, logger: logger}
}

// Quipucords pins QUIPUCORDS_COMMIT to sha. DISCOVERY_VERSION follows
// committish only when it looks like a release version.
func (r *Rewriter) Quipucords(sha, committish string) error {
	args := map[string]string{ArgQuipucordsCommit: sha}
	if IsReleaseVersion(committish) {
		args[ArgDiscoveryVersion] = committish
	} else {
		r.logger.Warn("commit-ish is not formatted as a version; DISCOVERY_VERSION won't be updated", "committish", committish)
	}
	return r.SetArgs(args)
}

// QPC pins QPC_COMMIT to sha.
func (r *Rewriter) QPC(sha string) error {
	return r.SetArgs(map[string]string{ArgQPCCommit: sha})
}

// SetArgs replaces the default value of each named ARG.
func (r *Rewriter) SetArgs(args map[string]string) error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeSourceNotFound, err, "read %s", r.path)
	}
	out := data
	for name, value := range args {
		var found bool
		out, found = setArg(out, name, value)
		if !found {
			r.logger.Warn("ARG not found in Dockerfile", "arg", name, "path", r.path)
			continue
		}
		r.logger.Info("updating Dockerfile ARG", "arg", name, "value", value)
	}
	info, err := os.Stat(r.path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "stat %s", r.path)
	}
	if err := os.WriteFile(r.path, out, info.Mode().Perm()); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", r.path)
	}
	return nil
}

func setArg(data []byte, name, value string) ([]byte, bool) {
	re := regexp.MustCompile(`(?m)^ARG ` + regexp.QuoteMeta(name) + `=.*$`)
	if !re.Match(data) {
		return data, false
	}
	repl := []byte(`ARG ` + name + `="` + value + `"`)
	return re.ReplaceAllLiteral(data, repl), true
}
