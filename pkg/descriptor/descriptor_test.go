package descriptor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/quipucords/chaski/pkg/errors"
)

const containerYAML = `# managed by chaski
platforms:
  only:
    - x86_64
remote_sources:
  - name: quipucords-server
    remote_source:
      repo: https://github.com/quipucords/quipucords.git
      ref: 1111111111111111111111111111111111111111
      pkg_managers:
        - pip
  - name: qpc
    remote_source:
      repo: https://github.com/quipucords/qpc.git
      ref: 2222222222222222222222222222222222222222
  - name: quipucords-ui
    remote_source:
      repo: https://github.com/quipucords/quipucords-ui.git
      ref: 3333333333333333333333333333333333333333
`

const versionsYAML = `quipucords-server: 1.4.0
qpc: main
`

func writeCheckout(t *testing.T, container, versions string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ContainerFile), []byte(container), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, VersionsFile), []byte(versions), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoad(t *testing.T) {
	d, err := Load(writeCheckout(t, containerYAML, versionsYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := []Source{
		{Name: "quipucords-server", Repo: "https://github.com/quipucords/quipucords.git", Ref: "1111111111111111111111111111111111111111"},
		{Name: "qpc", Repo: "https://github.com/quipucords/qpc.git", Ref: "2222222222222222222222222222222222222222"},
		{Name: "quipucords-ui", Repo: "https://github.com/quipucords/quipucords-ui.git", Ref: "3333333333333333333333333333333333333333"},
	}
	if diff := cmp.Diff(want, d.Sources()); diff != "" {
		t.Errorf("Sources mismatch (-want +got):\n%s", diff)
	}

	if c, ok := d.Committish("quipucords-server"); !ok || c != "1.4.0" {
		t.Errorf("Committish(quipucords-server) = %q, %v", c, ok)
	}
	if _, ok := d.Committish("quipucords-ui"); ok {
		t.Error("quipucords-ui is not tracked")
	}
	if d.Changed() {
		t.Error("fresh descriptor should not be changed")
	}
}

func TestSetRefAndSave(t *testing.T) {
	dir := writeCheckout(t, containerYAML, versionsYAML)
	d, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := d.SetRef("qpc", "2222222222222222222222222222222222222222"); err != nil {
		t.Fatal(err)
	}
	if d.Changed() {
		t.Error("setting the same ref should not count as a change")
	}

	newSHA := "abcdefabcdefabcdefabcdefabcdefabcdefabcd"
	if err := d.SetRef("quipucords-server", newSHA); err != nil {
		t.Fatal(err)
	}
	if !d.Changed() {
		t.Error("Changed() = false after SetRef")
	}
	if err := d.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, ContainerFile))
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{"# managed by chaski", "platforms:", "pkg_managers:", "ref: " + newSHA} {
		if !strings.Contains(out, want) {
			t.Errorf("saved container.yaml missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "quipucords-server") > strings.Index(out, "name: qpc") {
		t.Error("source order not preserved")
	}

	reloaded, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	s, _ := reloaded.Source("quipucords-server")
	if s.Ref != newSHA {
		t.Errorf("reloaded ref = %q, want %q", s.Ref, newSHA)
	}
}

func TestSetRefUnknownSource(t *testing.T) {
	d, err := Load(writeCheckout(t, containerYAML, versionsYAML))
	if err != nil {
		t.Fatal(err)
	}
	if err := d.SetRef("nope", "abc"); !errors.Is(err, errors.ErrCodeSourceNotFound) {
		t.Errorf("err = %v, want SOURCE_NOT_FOUND", err)
	}
}

func TestNumericCommittishKeepsText(t *testing.T) {
	d, err := Load(writeCheckout(t, containerYAML, "quipucords-server: 1.10\n"))
	if err != nil {
		t.Fatal(err)
	}
	if c, _ := d.Committish("quipucords-server"); c != "1.10" {
		t.Errorf("Committish = %q, want 1.10", c)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name      string
		container string
		versions  string
		code      errors.Code
	}{
		{"remote_sources not a list", "remote_sources: {}\n", "", errors.ErrCodeInvalidManifest},
		{"source without ref", "remote_sources:\n  - name: qpc\n    remote_source:\n      repo: x\n", "", errors.ErrCodeInvalidManifest},
		{"versions not a mapping", "remote_sources: []\n", "- a\n", errors.ErrCodeInvalidManifest},
		{"invalid yaml", "remote_sources: [\n", "", errors.ErrCodeInvalidManifest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeCheckout(t, tt.container, tt.versions))
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}

	if _, err := Load(t.TempDir()); !errors.Is(err, errors.ErrCodeSourceNotFound) {
		t.Errorf("missing files: err = %v, want SOURCE_NOT_FOUND", err)
	}
}
