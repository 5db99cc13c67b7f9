package rust

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	// LockfileName is the lockfile cargo writes next to a workspace root.
	LockfileName = "Cargo.lock"

	// ManifestName is the cargo manifest file name.
	ManifestName = "Cargo.toml"
)

// Package is one [[package]] entry of a Cargo.lock.
type Package struct {
	Name     string `toml:"name"`
	Version  string `toml:"version"`
	Source   string `toml:"source"`
	Checksum string `toml:"checksum"`
}

// Key identifies p by name and version.
func (p Package) Key() string { return p.Name + "@" + p.Version }

// Lockfile is a decoded Cargo.lock.
type Lockfile struct {
	Version  int       `toml:"version"`
	Packages []Package `toml:"package"`
}

// ParseLockfile decodes Cargo.lock content.
func ParseLockfile(data []byte) (*Lockfile, error) {
	var lock Lockfile
	if _, err := toml.Decode(string(data), &lock); err != nil {
		return nil, fmt.Errorf("parse %s: %w", LockfileName, err)
	}
	for i, p := range lock.Packages {
		if p.Name == "" || p.Version == "" {
			return nil, fmt.Errorf("parse %s: package %d missing name or version", LockfileName, i)
		}
	}
	return &lock, nil
}

// ReadLockfile reads and decodes the lockfile at path.
func ReadLockfile(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseLockfile(data)
}

// Registry returns the packages that came from a registry or git source,
// skipping workspace and path members.
func (l *Lockfile) Registry() []Package {
	var out []Package
	for _, p := range l.Packages {
		if p.Source != "" {
			out = append(out, p)
		}
	}
	return out
}

// FindLockfile looks for Cargo.lock next to manifest and then in each parent
// directory up to and including root. Workspace members share the lockfile
// at the workspace root.
func FindLockfile(manifest, root string) (string, error) {
	root = filepath.Clean(root)
	dir := filepath.Dir(filepath.Clean(manifest))
	for {
		candidate := filepath.Join(dir, LockfileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		if dir == root || !strings.HasPrefix(dir, root+string(filepath.Separator)) {
			break
		}
		dir = filepath.Dir(dir)
	}
	return "", fmt.Errorf("no %s for %s under %s: %w", LockfileName, manifest, root, os.ErrNotExist)
}

// Manifest is the [package] table of a Cargo.toml.
type Manifest struct {
	Name    string
	Version string
}

type cargoFile struct {
	Package struct {
		Name    string `toml:"name"`
		Version any    `toml:"version"`
	} `toml:"package"`
}

// ReadManifest reads the package name and version from a Cargo.toml.
// Workspace-inherited versions ({ workspace = true }) are reported as
// "workspace".
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cargo cargoFile
	if _, err := toml.Decode(string(data), &cargo); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	m := &Manifest{Name: cargo.Package.Name}
	switch v := cargo.Package.Version.(type) {
	case string:
		m.Version = v
	case map[string]any:
		m.Version = "workspace"
	}
	return m, nil
}
