package deps

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Spec declares one native dependency.
type Spec struct {
	Name             string          // Python distribution name, as pinned in requirements
	SourceArchiveURL string          // URL template with a single %s for the version
	ManifestPath     string          // Cargo.toml path relative to the archive root
	MinVendored      *semver.Version // first version with Rust code to vendor
}

// ArchiveURL returns the source archive URL for version.
func (s Spec) ArchiveURL(version string) string {
	return fmt.Sprintf(s.SourceArchiveURL, version)
}

// Vendored reports whether version is at or above MinVendored.
// A nil MinVendored vendors every version.
func (s Spec) Vendored(version string) (bool, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("%s: invalid version %q: %w", s.Name, version, err)
	}
	if s.MinVendored == nil {
		return true, nil
	}
	return !v.LessThan(s.MinVendored), nil
}

// Table is an ordered set of dependency specs. The zero value is empty.
type Table struct {
	specs []Spec
	index map[string]int
}

// NewTable builds a table, preserving the order of specs.
// Duplicate names are rejected.
func NewTable(specs ...Spec) (*Table, error) {
	t := &Table{
		specs: make([]Spec, 0, len(specs)),
		index: make(map[string]int, len(specs)),
	}
	for _, s := range specs {
		if s.Name == "" {
			return nil, fmt.Errorf("dependency spec without a name")
		}
		if _, dup := t.index[s.Name]; dup {
			return nil, fmt.Errorf("duplicate dependency %q", s.Name)
		}
		t.index[s.Name] = len(t.specs)
		t.specs = append(t.specs, s)
	}
	return t, nil
}

// MustTable is like NewTable but panics on error.
func MustTable(specs ...Spec) *Table {
	t, err := NewTable(specs...)
	if err != nil {
		panic(err)
	}
	return t
}

// DefaultTable returns the Rust-backed Python packages quipucords-server
// depends on.
func DefaultTable() *Table {
	return MustTable(
		Spec{
			Name:             "cryptography",
			SourceArchiveURL: "https://github.com/pyca/cryptography/archive/refs/tags/%s.tar.gz",
			ManifestPath:     "src/rust/Cargo.toml",
			MinVendored:      semver.MustParse("35.0.0"),
		},
		Spec{
			Name:             "bcrypt",
			SourceArchiveURL: "https://github.com/pyca/bcrypt/archive/refs/tags/%s.tar.gz",
			ManifestPath:     "src/_bcrypt/Cargo.toml",
			MinVendored:      semver.MustParse("4.0.0"),
		},
		Spec{
			Name:             "maturin",
			SourceArchiveURL: "https://github.com/PyO3/maturin/archive/refs/tags/v%s.tar.gz",
			ManifestPath:     "Cargo.toml",
			MinVendored:      semver.MustParse("0.0.0"),
		},
		Spec{
			Name:             "rpds-py",
			SourceArchiveURL: "https://github.com/crate-py/rpds/archive/refs/tags/v%s.tar.gz",
			ManifestPath:     "Cargo.toml",
			MinVendored:      semver.MustParse("0.0.0"),
		},
	)
}

// Get returns the spec named name.
func (t *Table) Get(name string) (Spec, bool) {
	if t == nil {
		return Spec{}, false
	}
	i, ok := t.index[name]
	if !ok {
		return Spec{}, false
	}
	return t.specs[i], true
}

// Names returns dependency names in declaration order.
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	names := make([]string, len(t.specs))
	for i, s := range t.specs {
		names[i] = s.Name
	}
	return names
}

// Specs returns a copy of the specs in declaration order.
func (t *Table) Specs() []Spec {
	if t == nil {
		return nil
	}
	out := make([]Spec, len(t.specs))
	copy(out, t.specs)
	return out
}

// Len returns the number of specs.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.specs)
}
