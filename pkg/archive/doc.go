// Package archive keeps a local cache of extracted source archives.
//
// Each (name, version) pair is downloaded at most once and extracted to
// <root>/<name>-<version>. A cache hit is a pure directory lookup: no
// network call is made and nothing under the directory is modified.
//
//	c := archive.New("dependencies", http, logger)
//	r, err := c.Obtain(ctx, "cryptography", "41.0.2",
//	    "https://github.com/pyca/cryptography/archive/refs/tags/%s.tar.gz")
//	// r.Dir == "dependencies/cryptography-41.0.2"
//
// Archives must be gzip-compressed tarballs holding exactly one top-level
// directory, which is what GitHub tag tarballs and .crate files look like.
// Anything else is rejected with MALFORMED_ARCHIVE rather than guessed at.
//
// Extraction happens in a scratch directory. The extracted tree only appears
// at its final path through a rename, so a failed or interrupted run never
// leaves a partial tree where a later run would take it for a cache hit.
package archive
