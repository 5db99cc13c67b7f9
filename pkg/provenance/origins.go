package provenance

import (
	"github.com/quipucords/chaski/pkg/deps/rust"
	"github.com/quipucords/chaski/pkg/errors"
)

// DefaultTrustedOrigins are the crates.io index sources cargo writes into
// Cargo.lock, in git and sparse protocol form.
var DefaultTrustedOrigins = []string{
	"registry+https://github.com/rust-lang/crates.io-index",
	"sparse+https://index.crates.io/",
}

// Origins is the set of Cargo.lock sources crates may be vendored from.
type Origins map[string]bool

// NewOrigins builds an origin set. A nil list selects [DefaultTrustedOrigins].
func NewOrigins(sources []string) Origins {
	if sources == nil {
		sources = DefaultTrustedOrigins
	}
	o := make(Origins, len(sources))
	for _, s := range sources {
		o[s] = true
	}
	return o
}

// Trusted reports whether source is an allowed origin.
func (o Origins) Trusted(source string) bool { return o[source] }

// Check rejects lock when any registry or git package in it comes from an
// origin outside the set. Workspace and path members carry no source and are
// always accepted.
func (o Origins) Check(lock *rust.Lockfile) error {
	for _, p := range lock.Registry() {
		if !o.Trusted(p.Source) {
			return untrusted(p)
		}
	}
	return nil
}

func untrusted(p rust.Package) error {
	return errors.New(errors.ErrCodeUntrustedOrigin,
		"%s %s comes from %q; add it to the trusted origins to vendor it", p.Name, p.Version, p.Source)
}
