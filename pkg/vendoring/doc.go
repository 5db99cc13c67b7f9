// Package vendoring merges the Cargo manifests of the native dependencies
// into one offline vendor tree and packs it as a tarball.
//
// An [Assembler] takes a version snapshot, drops every dependency below its
// minimum vendored version, obtains the remaining source archives through
// the archive cache and hands their manifests to a [Vendorer]. The first
// manifest in table order is the primary one; the rest are passed as
// additional sources, so cargo reconciles shared transitive crates into a
// single tree.
//
// The vendor directory and the tarball are deleted before every run and
// rebuilt from scratch. The tarball is only written once the tree is
// complete.
package vendoring
