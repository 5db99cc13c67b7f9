// Package crates provides an HTTP client for the crates.io API.
//
// # Overview
//
// This package fetches crate metadata from crates.io (https://crates.io),
// the Rust community's package registry, and builds download URLs for
// published .crate archives (https://static.crates.io).
//
// # Usage
//
//	client := crates.NewClient(backend, 24*time.Hour, "", "")
//
//	crate, err := client.FetchCrate(ctx, "pyo3", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(crate.Repository)
//
//	tmpl := client.ArchiveURLTemplate("pyo3") // ".../pyo3/pyo3-%s.crate"
//
// # Caching
//
// Metadata responses are cached through the configured [cache.Cache]
// backend. Pass refresh=true to bypass the cache. Archives are not cached
// here; the provenance resolver stores them in the archive cache.
//
// # User-Agent
//
// The client includes a User-Agent header as required by crates.io policy.
package crates
