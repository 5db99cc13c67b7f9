// Package rust decodes Cargo manifests and lockfiles.
//
// # Lockfiles
//
// [ParseLockfile] reads the [[package]] entries of a Cargo.lock. Each
// [Package] carries the source string cargo recorded for it, which is what
// the provenance resolver checks against its trusted origins:
//
//	lock, _ := rust.ReadLockfile("src/rust/Cargo.lock")
//	for _, p := range lock.Registry() {
//	    fmt.Println(p.Name, p.Version, p.Source)
//	}
//
// Workspace and path members have an empty Source and are excluded by
// [Lockfile.Registry].
//
// # Manifests
//
// [ReadManifest] reads the [package] table of a Cargo.toml. It is used for
// log output only; dependency resolution is left to cargo itself.
package rust
