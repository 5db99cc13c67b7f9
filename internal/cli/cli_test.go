package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/quipucords/chaski/pkg/errors"
)

const (
	serverRef = "1111111111111111111111111111111111111111"
	qpcRef    = "3333333333333333333333333333333333333333"
	serverNew = "abcdefabcdefabcdefabcdefabcdefabcdefabcd"
)

const containerYAML = `remote_sources:
  - name: quipucords-server
    remote_source:
      repo: https://github.com/quipucords/quipucords.git
      ref: 1111111111111111111111111111111111111111
  - name: qpc
    remote_source:
      repo: https://github.com/quipucords/qpc.git
      ref: 3333333333333333333333333333333333333333
`

const dockerfileText = `FROM ubi9
ARG QUIPUCORDS_COMMIT="0000000000000000000000000000000000000000"
ARG DISCOVERY_VERSION="1.3.0"
ARG QPC_COMMIT="0000000000000000000000000000000000000000"
`

// isolate keeps config and cache lookups inside a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("GITHUB_TOKEN", "")
	t.Chdir(dir)
	return dir
}

// run executes the command line args. out receives command output when set.
func run(t *testing.T, out io.Writer, args ...string) error {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	if out != nil {
		root.SetOut(out)
	}
	root.SetErr(io.Discard)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func writeDistgit(t *testing.T, root string) string {
	t.Helper()
	dir := filepath.Join(root, "discovery")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, body := range map[string]string{
		"container.yaml":       containerYAML,
		"sources-version.yaml": "quipucords-server: 1.4.0\nqpc: main\n",
		"Dockerfile":           dockerfileText,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// fakeGitHub answers commit lookups from refs and serves one
// requirements.txt for every commit.
func fakeGitHub(t *testing.T, refs map[string]string, requirements string) {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/repos/{owner}/{repo}/commits/{ref}", func(w http.ResponseWriter, r *http.Request) {
		sha, ok := refs[chi.URLParam(r, "repo")+"@"+chi.URLParam(r, "ref")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"sha": sha})
	})
	r.Get("/raw/{owner}/{repo}/{sha}/lockfiles/requirements.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(requirements))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	t.Setenv("CHASKI_GITHUB_API_URL", srv.URL)
	t.Setenv("CHASKI_GITHUB_RAW_URL", srv.URL+"/raw")
}

func TestUpdateDockerfileCommand(t *testing.T) {
	dir := writeDistgit(t, isolate(t))

	if err := run(t, nil, "update-dockerfile", dir); err != nil {
		t.Fatalf("update-dockerfile: %v", err)
	}
	df := read(t, filepath.Join(dir, "Dockerfile"))
	for _, want := range []string{
		`ARG QUIPUCORDS_COMMIT="` + serverRef + `"`,
		`ARG DISCOVERY_VERSION="1.4.0"`,
		`ARG QPC_COMMIT="` + qpcRef + `"`,
	} {
		if !strings.Contains(df, want) {
			t.Errorf("Dockerfile missing %q:\n%s", want, df)
		}
	}
}

func TestUpdateRemoteSourcesNothingToUpdate(t *testing.T) {
	dir := writeDistgit(t, isolate(t))
	fakeGitHub(t, map[string]string{
		"quipucords@1.4.0": serverRef,
		"qpc@main":         qpcRef,
	}, "")

	if err := run(t, nil, "update-remote-sources", dir); err != nil {
		t.Fatalf("update-remote-sources: %v", err)
	}
	if got := read(t, filepath.Join(dir, "container.yaml")); got != containerYAML {
		t.Errorf("container.yaml rewritten:\n%s", got)
	}
	if got := read(t, filepath.Join(dir, "Dockerfile")); got != dockerfileText {
		t.Errorf("Dockerfile rewritten:\n%s", got)
	}
}

func TestUpdateRemoteSourcesPinsNewRef(t *testing.T) {
	dir := writeDistgit(t, isolate(t))
	fakeGitHub(t, map[string]string{
		"quipucords@1.4.0": serverNew,
		"qpc@main":         qpcRef,
	}, "cryptography==41.0.2\nbcrypt==4.1.0\nmaturin==1.3.0\nrpds-py==0.10.6\n")

	if err := run(t, nil, "--no-upload", "update-remote-sources", dir); err != nil {
		t.Fatalf("update-remote-sources: %v", err)
	}
	if got := read(t, filepath.Join(dir, "container.yaml")); !strings.Contains(got, "ref: "+serverNew) {
		t.Errorf("container.yaml not updated:\n%s", got)
	}
	if df := read(t, filepath.Join(dir, "Dockerfile")); !strings.Contains(df, `ARG QUIPUCORDS_COMMIT="`+serverNew+`"`) {
		t.Errorf("Dockerfile not updated:\n%s", df)
	}
	if _, err := os.Stat(filepath.Join(dir, "dependencies")); !os.IsNotExist(err) {
		t.Error("unchanged dependencies must not be vendored")
	}
}

func TestUpdateRemoteSourcesResolutionFailure(t *testing.T) {
	dir := writeDistgit(t, isolate(t))
	fakeGitHub(t, map[string]string{}, "")

	err := run(t, nil, "update-remote-sources", dir)
	if !errors.Is(err, errors.ErrCodeResolution) {
		t.Fatalf("err = %v, want RESOLUTION_FAILED", err)
	}
	if got := read(t, filepath.Join(dir, "container.yaml")); got != containerYAML {
		t.Errorf("container.yaml changed:\n%s", got)
	}
}

func TestCommandsRequireDistgitPath(t *testing.T) {
	isolate(t)
	for _, cmd := range []string{"update-remote-sources", "update-dockerfile", "update-rust-deps", "provenance"} {
		if err := run(t, nil, cmd); err == nil {
			t.Errorf("%s without a path should fail", cmd)
		}
	}
}

func TestMissingDistgit(t *testing.T) {
	env := isolate(t)
	err := run(t, nil, "update-dockerfile", filepath.Join(env, "nope"))
	if !errors.Is(err, errors.ErrCodeSourceNotFound) {
		t.Errorf("err = %v, want SOURCE_NOT_FOUND", err)
	}
}

func TestConfigFlag(t *testing.T) {
	env := isolate(t)

	err := run(t, nil, "--config", filepath.Join(env, "missing.yaml"), "cache", "path")
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}

	file := filepath.Join(env, "chaski.yaml")
	if err := os.WriteFile(file, []byte("cache:\n  dir: /var/cache/chaski\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := run(t, &out, "--config", file, "cache", "path"); err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "/var/cache/chaski" {
		t.Errorf("cache path = %q", got)
	}
}

func TestVersionFlag(t *testing.T) {
	isolate(t)
	var out bytes.Buffer
	if err := run(t, &out, "--version"); err != nil {
		t.Fatalf("--version: %v", err)
	}
	if !strings.Contains(out.String(), "chaski version") {
		t.Errorf("version output = %q", out.String())
	}
}

func TestCompletionScripts(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish"} {
		t.Run(shell, func(t *testing.T) {
			isolate(t)
			var out bytes.Buffer
			if err := run(t, &out, "completion", shell); err != nil {
				t.Fatalf("completion %s: %v", shell, err)
			}
			if !strings.Contains(out.String(), "chaski") {
				t.Errorf("%s script does not mention chaski", shell)
			}
		})
	}

	isolate(t)
	if err := run(t, io.Discard, "completion", "powershell"); err == nil {
		t.Error("expected an error for an unsupported shell")
	}
}

func TestDistgitArgumentCompletesDirectories(t *testing.T) {
	tests := []struct {
		args []string
		want cobra.ShellCompDirective
	}{
		{[]string{"update-remote-sources", ""}, cobra.ShellCompDirectiveFilterDirs},
		{[]string{"update-dockerfile", ""}, cobra.ShellCompDirectiveFilterDirs},
		{[]string{"update-rust-deps", ""}, cobra.ShellCompDirectiveFilterDirs},
		{[]string{"provenance", ""}, cobra.ShellCompDirectiveFilterDirs},
		{[]string{"update-dockerfile", "discovery", ""}, cobra.ShellCompDirectiveNoFileComp},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			isolate(t)
			var out bytes.Buffer
			if err := run(t, &out, append([]string{cobra.ShellCompRequestCmd}, tt.args...)...); err != nil {
				t.Fatalf("complete: %v", err)
			}
			if want := fmt.Sprintf(":%d", tt.want); !strings.Contains(out.String(), want) {
				t.Errorf("completion output = %q, want directive %s", out.String(), want)
			}
		})
	}
}
