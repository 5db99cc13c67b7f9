// Package descriptor reads and updates the downstream build descriptor:
// container.yaml, which pins each remote source to a commit, and
// sources-version.yaml, which names the commit-ish each source should track.
//
// container.yaml is edited through the yaml.v3 node tree, so keys this
// package does not know about, comments and key order survive a save.
package descriptor

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/quipucords/chaski/pkg/errors"
)

const (
	// ContainerFile holds the remote_sources list.
	ContainerFile = "container.yaml"

	// VersionsFile maps source names to commit-ishes.
	VersionsFile = "sources-version.yaml"
)

// Source is one entry of remote_sources.
type Source struct {
	Name string
	Repo string // clone URL, e.g. https://github.com/quipucords/quipucords.git
	Ref  string // pinned commit SHA
}

type entry struct {
	Source
	ref *yaml.Node
}

// Descriptor is a loaded distgit checkout.
type Descriptor struct {
	dir      string
	doc      yaml.Node
	sources  []*entry
	versions map[string]string
	changed  bool
}

// Load reads both descriptor files from dir.
func Load(dir string) (*Descriptor, error) {
	d := &Descriptor{dir: dir}

	data, err := os.ReadFile(filepath.Join(dir, ContainerFile))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceNotFound, err, "read %s", ContainerFile)
	}
	if err := yaml.Unmarshal(data, &d.doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", ContainerFile)
	}
	if d.sources, err = parseSources(&d.doc); err != nil {
		return nil, err
	}

	data, err = os.ReadFile(filepath.Join(dir, VersionsFile))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceNotFound, err, "read %s", VersionsFile)
	}
	if d.versions, err = parseVersions(data); err != nil {
		return nil, err
	}
	return d, nil
}

// Dir returns the checkout directory.
func (d *Descriptor) Dir() string { return d.dir }

// Sources returns the remote sources in file order.
func (d *Descriptor) Sources() []Source {
	out := make([]Source, len(d.sources))
	for i, s := range d.sources {
		out[i] = s.Source
	}
	return out
}

// Source returns the remote source named name.
func (d *Descriptor) Source(name string) (Source, bool) {
	for _, s := range d.sources {
		if s.Name == name {
			return s.Source, true
		}
	}
	return Source{}, false
}

// Committish returns the commit-ish sources-version.yaml asks name to track.
func (d *Descriptor) Committish(name string) (string, bool) {
	c, ok := d.versions[name]
	return c, ok
}

// SetRef pins name to sha. Setting the current value is not a change.
func (d *Descriptor) SetRef(name, sha string) error {
	for _, s := range d.sources {
		if s.Name != name {
			continue
		}
		if s.Ref == sha {
			return nil
		}
		s.Ref = sha
		s.ref.Value = sha
		s.ref.Tag = "!!str"
		s.ref.Style = 0
		d.changed = true
		return nil
	}
	return errors.New(errors.ErrCodeSourceNotFound, "no remote source %q in %s", name, ContainerFile)
}

// Changed reports whether any ref was updated since Load.
func (d *Descriptor) Changed() bool { return d.changed }

// Save writes container.yaml back.
func (d *Descriptor) Save() error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&d.doc); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode %s", ContainerFile)
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode %s", ContainerFile)
	}
	if err := writeFile(filepath.Join(d.dir, ContainerFile), buf.Bytes()); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", ContainerFile)
	}
	d.changed = false
	return nil
}

func parseSources(doc *yaml.Node) ([]*entry, error) {
	root := doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	list := mapValue(root, "remote_sources")
	if list == nil {
		return nil, nil
	}
	if list.Kind != yaml.SequenceNode {
		return nil, errors.New(errors.ErrCodeInvalidManifest, "%s: remote_sources is not a list (line %d)", ContainerFile, list.Line)
	}

	var sources []*entry
	for _, item := range list.Content {
		name := mapValue(item, "name")
		remote := mapValue(item, "remote_source")
		if name == nil || remote == nil {
			return nil, errors.New(errors.ErrCodeInvalidManifest, "%s: remote source at line %d needs name and remote_source", ContainerFile, item.Line)
		}
		repo, ref := mapValue(remote, "repo"), mapValue(remote, "ref")
		if repo == nil || ref == nil {
			return nil, errors.New(errors.ErrCodeInvalidManifest, "%s: remote source %q needs repo and ref", ContainerFile, name.Value)
		}
		sources = append(sources, &entry{Source: Source{Name: name.Value, Repo: repo.Value, Ref: ref.Value}, ref: ref})
	}
	return sources, nil
}

func parseVersions(data []byte) (map[string]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", VersionsFile)
	}
	versions := map[string]string{}
	if len(doc.Content) == 0 {
		return versions, nil
	}
	m := doc.Content[0]
	if m.Kind != yaml.MappingNode {
		return nil, errors.New(errors.ErrCodeInvalidManifest, "%s: expected a mapping of source name to commit-ish", VersionsFile)
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		k, v := m.Content[i], m.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return nil, errors.New(errors.ErrCodeInvalidManifest, "%s: %s is not a scalar (line %d)", VersionsFile, k.Value, v.Line)
		}
		versions[k.Value] = v.Value
	}
	return versions, nil
}

// mapValue returns the value node for key in mapping node m.
func mapValue(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func writeFile(path string, data []byte) error {
	info, err := os.Stat(path)
	mode := os.FileMode(0o644)
	if err == nil {
		mode = info.Mode().Perm()
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
