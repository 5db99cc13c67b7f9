// Package packaging hands finished tarballs to the distgit lookaside cache.
package packaging

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/quipucords/chaski/pkg/errors"
)

// Uploader publishes a tarball for the downstream build.
type Uploader interface {
	Upload(ctx context.Context, tarball string) error
}

// RHPKG uploads with "rhpkg new-sources", run inside the distgit checkout.
type RHPKG struct {
	Bin    string // empty means "rhpkg" on PATH
	Dir    string // distgit checkout
	Stdout io.Writer
	Stderr io.Writer
	Logger *log.Logger
}

// Upload runs rhpkg new-sources tarball.
func (r RHPKG) Upload(ctx context.Context, tarball string) error {
	bin := r.Bin
	if bin == "" {
		bin = "rhpkg"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return errors.Wrap(errors.ErrCodeUpload, err, "find %s", bin)
	}
	args := []string{"new-sources", tarball}
	if r.Logger != nil {
		r.Logger.Info(path + " " + strings.Join(args, " "))
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = r.Dir
	cmd.Stdout = orStderr(r.Stdout)
	cmd.Stderr = orStderr(r.Stderr)
	if err := cmd.Run(); err != nil {
		return errors.Wrap(errors.ErrCodeUpload, err, "rhpkg new-sources %s", tarball)
	}
	return nil
}

func orStderr(w io.Writer) io.Writer {
	if w == nil {
		return os.Stderr
	}
	return w
}

// Nop skips the upload and only logs what would have been uploaded.
type Nop struct {
	Logger *log.Logger
}

func (n Nop) Upload(_ context.Context, tarball string) error {
	if n.Logger != nil {
		n.Logger.Info("skipping upload", "tarball", tarball)
	}
	return nil
}

var (
	_ Uploader = RHPKG{}
	_ Uploader = Nop{}
)
