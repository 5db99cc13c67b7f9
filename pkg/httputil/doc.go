// Package httputil provides retry helpers for registry HTTP clients.
//
// [Retry] re-runs an operation with exponential backoff, but only for errors
// the caller explicitly marked transient with [Retryable]. Registry metadata
// lookups use it; commit resolution and archive downloads deliberately do
// not, because a failed pin or download aborts the sync.
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return client.Get(ctx, url, &v)
//	})
package httputil
