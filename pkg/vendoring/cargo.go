package vendoring

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/quipucords/chaski/pkg/errors"
)

// Vendorer writes the crates needed by primary and every secondary manifest
// into dir.
type Vendorer interface {
	Vendor(ctx context.Context, primary string, secondary []string, dir string) error
}

// CargoVendorer runs cargo vendor.
type CargoVendorer struct {
	Bin    string // cargo executable; empty means "cargo" on PATH
	Logger *log.Logger
}

// Args returns the cargo arguments for one vendor run.
func (CargoVendorer) Args(primary string, secondary []string, dir string) []string {
	args := []string{"vendor", "--manifest-path=" + primary}
	for _, s := range secondary {
		args = append(args, "-s="+s)
	}
	return append(args, dir)
}

// Vendor runs cargo vendor and returns VENDOR_STEP_FAILED with the tail of
// cargo's output when it exits non-zero.
func (v CargoVendorer) Vendor(ctx context.Context, primary string, secondary []string, dir string) error {
	bin := v.Bin
	if bin == "" {
		bin = "cargo"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return errors.Wrap(errors.ErrCodeVendorStep, err, "find %s", bin)
	}
	logger := v.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	args := v.Args(primary, secondary, dir)
	logger.Info(path + " " + strings.Join(args, " "))

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return errors.Wrap(errors.ErrCodeVendorStep, err, "cargo vendor %s: %s", primary, tail(out.String(), 20))
	}
	return nil
}

// tail returns the last n lines of s.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
