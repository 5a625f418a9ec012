// Package catalog defines the [Service] interface for the external video
// catalog and implements it over the playdex HTTP proxy.
//
// # Service Interface
//
// The reconciliation engine (internal/tasks) only depends on [Service]; the
// concrete transport, authentication and retry behavior live behind it.
//
// # HTTP Implementation
//
// [HTTPService] talks JSON to the catalog proxy. Every request passes
// through a [RateLimiter] token bucket before hitting the wire, and the
// transport retries transient failures via hashicorp/go-retryablehttp.
// A 429 response records a backoff window honored by subsequent calls.
// An optional bearer token (oauth2 static token source) is attached when
// configured.
//
// # Error Handling
//
// All failures wrap [shared.ErrCatalogRequest] except missing playlists,
// which wrap [shared.ErrPlaylistNotFound]. Callers in the scan path treat
// both as per-unit soft failures.
package catalog
