// Package pkg provides the libraries behind chaski, which keeps a downstream
// container build in sync with its upstream sources.
//
// # Overview
//
// A distgit checkout pins each upstream source to a commit in container.yaml
// and ships the Rust crates of some Python dependencies as a vendored
// tarball. The packages are organized as follows:
//
//  1. [deps] - the dependency table and version snapshots
//  2. [manifest], [integrations] - reading pins and registry metadata upstream
//  3. [archive], [vendoring] - source archives and the vendor tarball
//  4. [provenance] - where each vendored crate was published from
//  5. [descriptor], [dockerfile], [packaging] - the distgit side
//  6. [pipeline] - the update cascade tying them together
//
// # Data Flow
//
//	sources-version.yaml commit-ish
//	         ↓
//	    [integrations/github] (resolve to a commit SHA)
//	         ↓
//	    [manifest] (pinned versions at old and new commit)
//	         ↓
//	    [pipeline] (diff, decide)
//	         ↓
//	    [vendoring] (cargo vendor → cargo_vendor.tar.gz) → [packaging] (upload)
//	         ↓
//	    [descriptor] (new ref in container.yaml)
//
// Supporting packages: [cache] for registry metadata, [errors] for coded
// errors, [httputil] for retries, [observability] for hooks, [buildinfo] for
// version information.
package pkg
