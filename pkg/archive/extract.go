package archive

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// extract unpacks the gzip tarball at src into dest. Entries that would land
// outside dest are rejected. Symlinks are created after every regular entry,
// never below another symlink, and must resolve inside dest.
func extract(src, dest string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("not a gzip archive: %w", err)
	}
	defer gz.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}

	var links []*tar.Header
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return link(dest, links)
		}
		if err != nil {
			return fmt.Errorf("read tar: %w", err)
		}

		// GitHub tarballs start with a pax global header carrying the commit.
		if hdr.Typeflag == tar.TypeXGlobalHeader {
			continue
		}

		target, err := within(dest, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if filepath.IsAbs(hdr.Linkname) {
				return fmt.Errorf("symlink %q points to absolute path %q", hdr.Name, hdr.Linkname)
			}
			if _, err := within(dest, filepath.Join(filepath.Dir(hdr.Name), hdr.Linkname)); err != nil {
				return fmt.Errorf("symlink %q: %w", hdr.Name, err)
			}
			links = append(links, hdr)
		default:
			// hard links, devices and fifos have no place in a source archive
		}
	}
}

// link creates the deferred symlinks and checks where each one resolves.
func link(dest string, links []*tar.Header) error {
	root, err := filepath.EvalSymlinks(dest)
	if err != nil {
		return err
	}
	for _, hdr := range links {
		target, _ := within(dest, hdr.Name)
		if err := noLinkedParent(dest, target); err != nil {
			return fmt.Errorf("symlink %q: %w", hdr.Name, err)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.Symlink(hdr.Linkname, target); err != nil {
			return err
		}
	}
	for _, hdr := range links {
		target, _ := within(dest, hdr.Name)
		resolved, err := filepath.EvalSymlinks(target)
		if err != nil {
			return fmt.Errorf("symlink %q: %w", hdr.Name, err)
		}
		if rel, err := filepath.Rel(root, resolved); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return fmt.Errorf("symlink %q resolves outside the archive root", hdr.Name)
		}
	}
	return nil
}

// noLinkedParent fails when any existing directory between root and path is
// a symlink.
func noLinkedParent(root, path string) error {
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil {
		return err
	}
	if rel == "." {
		return nil
	}
	cur := root
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		cur = filepath.Join(cur, part)
		fi, err := os.Lstat(cur)
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if fi.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("parent %q is a symlink", cur)
		}
	}
	return nil
}

func within(root, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("entry %q escapes the archive root", name)
	}
	return filepath.Join(root, clean), nil
}

func writeFile(path string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if perm == 0 {
		perm = 0o644
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0o200)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
