// Package github provides an HTTP client for the GitHub API and the raw
// content host.
//
// # Overview
//
// Two operations drive the sync:
//
//   - [Client.ResolveCommit] turns a tag, branch or SHA prefix into the full
//     40-character commit SHA via GET /repos/{owner}/{repo}/commits/{ref}.
//     Refs can move (branches), so results are never cached and failures are
//     never retried: any non-2xx answer is a RESOLUTION_FAILED error carrying
//     the endpoint URL and status code.
//   - [Client.FetchRaw] downloads a file at an exact commit from
//     raw.githubusercontent.com, used for requirements lockfiles.
//
// # Usage
//
//	client := github.NewClient(token, "", "")
//	sha, err := client.ResolveCommit(ctx, "quipucords", "quipucords", "1.4.2")
//	text, err := client.FetchRaw(ctx, "quipucords/quipucords", sha, "lockfiles/requirements.txt")
//
// # Authentication
//
// A token is optional. Without one the API allows 60 requests/hour, which is
// plenty for a sync that resolves two refs.
//
// # Repository URLs
//
// [ParseRepoURL] extracts owner and repository from the remote-source URLs
// found in container.yaml (https://github.com/quipucords/quipucords.git).
package github
