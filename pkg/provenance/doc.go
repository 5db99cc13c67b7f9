// Package provenance maps vendored crates back to the repository and commit
// they were published from.
//
// For every registry package in a Cargo.lock, a [Resolver]:
//
//  1. refuses packages whose lockfile source is not a trusted registry,
//  2. reads the declared repository from crates.io,
//  3. downloads the .crate into an archive cache rooted apart from the
//     source archives,
//  4. reads the commit from the .cargo_vcs_info.json cargo embeds at publish
//     time.
//
// Crates published without VCS info (dirty trees, --allow-dirty, very old
// cargo) get the commit [Unknown]. Provenance is advisory, so that does not
// fail the run; an untrusted source does.
//
// Reports are written through a [Store]: [FileStore] writes JSON next to the
// vendor tarball and [MongoStore] upserts records into a collection.
package provenance
