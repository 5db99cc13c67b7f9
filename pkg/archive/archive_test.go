package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/quipucords/chaski/pkg/errors"
	"github.com/quipucords/chaski/pkg/integrations"
)

type entry struct {
	name     string
	body     string
	typeflag byte
	linkname string
}

func tarball(t *testing.T, entries ...entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0o644, Typeflag: e.typeflag, Linkname: e.linkname}
		switch e.typeflag {
		case tar.TypeDir:
			hdr.Mode = 0o755
		case tar.TypeReg:
			hdr.Size = int64(len(e.body))
		case tar.TypeXGlobalHeader:
			hdr.PAXRecords = map[string]string{"comment": "0123456789abcdef"}
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if e.typeflag == tar.TypeReg {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func dir(name string) entry { return entry{name: name, typeflag: tar.TypeDir} }
func file(name, body string) entry { return entry{name: name, body: body, typeflag: tar.TypeReg} }
func symlink(name, target string) entry {
	return entry{name: name, typeflag: tar.TypeSymlink, linkname: target}
}

// archiveServer serves archives by file name and counts requests.
func archiveServer(t *testing.T, archives map[string][]byte) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	r := chi.NewRouter()
	r.Get("/archive/{file}", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		data, ok := archives[chi.URLParam(r, "file")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/gzip")
		_, _ = w.Write(data)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newCache(t *testing.T) *Cache {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "dependencies"), integrations.NewClient(nil, "", 0, nil), nil)
}

func TestObtainDownloadsOnce(t *testing.T) {
	srv, hits := archiveServer(t, map[string][]byte{
		"41.0.2.tar.gz": tarball(t,
			entry{name: "pax_global_header", typeflag: tar.TypeXGlobalHeader},
			dir("cryptography-41.0.2/"),
			dir("cryptography-41.0.2/src/rust/"),
			file("cryptography-41.0.2/src/rust/Cargo.toml", "[package]\nname = \"cryptography-rust\"\n"),
		),
	})
	c := newCache(t)
	ctx := context.Background()

	first, err := c.Obtain(ctx, "cryptography", "41.0.2", srv.URL+"/archive/%s.tar.gz")
	if err != nil {
		t.Fatalf("first Obtain: %v", err)
	}
	if first.Cached {
		t.Error("first Obtain should not be a cache hit")
	}
	if want := filepath.Join(c.Root(), "cryptography-41.0.2"); first.Dir != want {
		t.Errorf("Dir = %q, want %q", first.Dir, want)
	}
	if _, err := os.Stat(filepath.Join(first.Dir, "src", "rust", "Cargo.toml")); err != nil {
		t.Errorf("manifest not extracted: %v", err)
	}

	second, err := c.Obtain(ctx, "cryptography", "41.0.2", srv.URL+"/archive/%s.tar.gz")
	if err != nil {
		t.Fatalf("second Obtain: %v", err)
	}
	if !second.Cached {
		t.Error("second Obtain should be a cache hit")
	}
	if second.Dir != first.Dir {
		t.Errorf("second Dir = %q, want %q", second.Dir, first.Dir)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server hits = %d, want 1", got)
	}
}

func TestObtainRejectsMalformedArchives(t *testing.T) {
	tests := []struct {
		name    string
		entries []entry
	}{
		{"two top-level entries", []entry{dir("a/"), file("a/x", "x"), dir("b/")}},
		{"single file root", []entry{file("README", "hi")}},
		{"empty archive", nil},
		{"path traversal", []entry{dir("a/"), file("a/../../escape", "x")}},
		{"absolute path", []entry{file("/etc/passwd", "x")}},
		{"escaping symlink", []entry{dir("a/"), symlink("a/link", "../../outside")}},
		{"symlink below symlink", []entry{dir("a/"), symlink("a/self", "."), symlink("a/self/up", "../..")}},
		{"file written through chained symlinks", []entry{
			dir("a/"),
			symlink("a/self", "."),
			symlink("a/self/up", "../.."),
			file("a/self/up/escape", "x"),
		}},
		{"symlink through symlink target", []entry{dir("a/"), symlink("a/self", "."), symlink("a/out", "self/../..")}},
		{"dangling symlink", []entry{dir("a/"), symlink("a/self", "."), symlink("a/gone", "self/../../missing")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := archiveServer(t, map[string][]byte{"1.0.0.tar.gz": tarball(t, tt.entries...)})
			c := newCache(t)

			_, err := c.Obtain(context.Background(), "bcrypt", "1.0.0", srv.URL+"/archive/%s.tar.gz")
			if !errors.Is(err, errors.ErrCodeMalformedArchive) {
				t.Fatalf("err = %v, want MALFORMED_ARCHIVE", err)
			}
			if _, err := os.Stat(c.Path("bcrypt", "1.0.0")); !os.IsNotExist(err) {
				t.Errorf("cache path should not exist after failure: %v", err)
			}
			entries, err := os.ReadDir(c.Root())
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != 0 {
				t.Errorf("cache root should be empty, has %d entries", len(entries))
			}
		})
	}
}

func TestObtainRejectsNonGzip(t *testing.T) {
	srv, _ := archiveServer(t, map[string][]byte{"1.0.0.tar.gz": []byte("<html>not an archive</html>")})
	c := newCache(t)

	_, err := c.Obtain(context.Background(), "bcrypt", "1.0.0", srv.URL+"/archive/%s.tar.gz")
	if !errors.Is(err, errors.ErrCodeMalformedArchive) {
		t.Fatalf("err = %v, want MALFORMED_ARCHIVE", err)
	}
}

func TestObtainDownloadError(t *testing.T) {
	srv, _ := archiveServer(t, nil)
	c := newCache(t)

	_, err := c.Obtain(context.Background(), "bcrypt", "4.1.0", srv.URL+"/archive/%s.tar.gz")
	if !errors.Is(err, errors.ErrCodeDownload) {
		t.Fatalf("err = %v, want DOWNLOAD_FAILED", err)
	}
	if !errors.Fatal(err) {
		t.Error("download failures must be fatal")
	}
	if _, err := os.Stat(c.Path("bcrypt", "4.1.0")); !os.IsNotExist(err) {
		t.Errorf("cache path should not exist: %v", err)
	}
}

func TestObtainKeepsInternalSymlinks(t *testing.T) {
	srv, _ := archiveServer(t, map[string][]byte{"0.10.0.tar.gz": tarball(t,
		dir("rpds-0.10.0/"),
		file("rpds-0.10.0/Cargo.toml", "[package]\n"),
		symlink("rpds-0.10.0/Cargo.link", "Cargo.toml"),
	)})
	c := newCache(t)

	r, err := c.Obtain(context.Background(), "rpds-py", "0.10.0", srv.URL+"/archive/%s.tar.gz")
	if err != nil {
		t.Fatalf("Obtain: %v", err)
	}
	target, err := os.Readlink(filepath.Join(r.Dir, "Cargo.link"))
	if err != nil {
		t.Fatalf("Readlink: %v", err)
	}
	if target != "Cargo.toml" {
		t.Errorf("link target = %q", target)
	}
}

func TestObtainCacheHitWithoutNetwork(t *testing.T) {
	c := New(t.TempDir(), nil, nil)
	if err := os.MkdirAll(c.Path("maturin", "1.4.0"), 0o755); err != nil {
		t.Fatal(err)
	}

	// a nil downloader would panic if Obtain reached the network
	r, err := c.Obtain(context.Background(), "maturin", "1.4.0", "http://invalid.example/%s")
	if err != nil {
		t.Fatalf("Obtain: %v", err)
	}
	if !r.Cached {
		t.Error("expected cache hit")
	}
}

func TestObtainRejectsFileAtCachePath(t *testing.T) {
	c := New(t.TempDir(), nil, nil)
	if err := os.WriteFile(c.Path("maturin", "1.4.0"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := c.Obtain(context.Background(), "maturin", "1.4.0", "http://invalid.example/%s")
	if !errors.Is(err, errors.ErrCodeMalformedArchive) {
		t.Fatalf("err = %v, want MALFORMED_ARCHIVE", err)
	}
}

func TestObtainValidatesKey(t *testing.T) {
	c := New(t.TempDir(), nil, nil)
	tests := []struct{ name, version string }{
		{"../evil", "1.0.0"},
		{"a/b", "1.0.0"},
		{"ok", "../1"},
		{"", "1.0.0"},
	}
	for _, tt := range tests {
		if _, err := c.Obtain(context.Background(), tt.name, tt.version, "http://invalid.example/%s"); err == nil {
			t.Errorf("Obtain(%q, %q) should fail", tt.name, tt.version)
		}
	}
}

func TestPlaceRename(t *testing.T) {
	c := New(t.TempDir(), nil, nil)
	src := filepath.Join(t.TempDir(), "tree")
	if err := os.MkdirAll(filepath.Join(src, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "sub", "f"), []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	dest := c.Path("x", "1")
	if err := c.place(src, dest); err != nil {
		t.Fatalf("place: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dest, "sub", "f"))
	if err != nil || string(data) != "data" {
		t.Errorf("moved file = %q, %v", data, err)
	}
}

func TestExtractNeverWritesOutsideDest(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "archive.tar.gz")
	data := tarball(t,
		dir("a/"),
		symlink("a/self", "."),
		symlink("a/self/up", "../.."),
		file("a/self/up/escape", "x"),
	)
	if err := os.WriteFile(src, data, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := extract(src, filepath.Join(base, "tree")); err == nil {
		t.Fatal("expected extract to fail")
	}
	if _, err := os.Lstat(filepath.Join(base, "escape")); !os.IsNotExist(err) {
		t.Errorf("entry escaped the destination: %v", err)
	}
}
