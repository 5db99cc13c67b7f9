// Package integrations provides the shared HTTP client used by the GitHub and
// crates.io clients.
//
// [Client] sets default headers, classifies HTTP status codes into
// [ErrNotFound] and [ErrNetwork] (always wrapped in a [StatusError] that
// carries the request URL and status code), reports requests to the
// observability HTTP hooks, and offers three access styles:
//
//   - [Client.Get]: JSON-decode a response body
//   - [Client.GetText]: read a plain-text body (raw manifest files)
//   - [Client.Download]: stream a binary body (source and crate archives)
//
// [Client.Cached] layers a [cache.Cache] and retry-with-backoff over a fetch
// function; only registry metadata goes through it.
//
// Sub-packages:
//   - github: commit resolution and raw file access
//   - crates: crates.io metadata and .crate downloads
package integrations
