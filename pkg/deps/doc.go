// Package deps describes the fixed set of native dependencies chaski vendors
// and the version snapshots used to detect drift between two upstream
// commits.
//
// # Dependency Table
//
// A [Table] is an ordered, immutable set of [Spec] values. Each Spec names a
// Python package that ships Rust code, where to download its source archive,
// where its Cargo manifest lives inside that archive, and the first version
// that actually contains Rust code:
//
//	table := deps.DefaultTable()
//	spec, _ := table.Get("bcrypt")
//	ok, _ := spec.Vendored("3.9.0") // false: bcrypt < 4.0.0 is pure Python
//
// The table is passed explicitly into every component that needs it; it is
// never read from a package-level variable.
//
// # Snapshots
//
// A [Snapshot] maps dependency names to the versions pinned at one upstream
// commit. Two snapshots are compared with [Snapshot.Equal]; when they differ
// the vendor tree must be rebuilt:
//
//	if !old.Equal(new) {
//	    fmt.Println(old.Diff(new))
//	}
//
// Sub-packages hold the file-format parsers: [python] extracts pins from
// requirements files and [rust] decodes Cargo.lock and Cargo.toml.
//
// [python]: github.com/quipucords/chaski/pkg/deps/python
// [rust]: github.com/quipucords/chaski/pkg/deps/rust
package deps
