// Package tasks orchestrates playlist reconciliation with real-time progress reporting.
//
// # Core Operations
//
// The [Engine] owns all reconciliation state for one browsing session and
// exposes three operations:
//
//  1. [Engine.Scan] : Discover which playlist owns each video in a batch
//     - Groups videos by channel, fetches each channel's playlists once
//     - Intersects a bounded first page per playlist with the group locally
//     - Falls back to budgeted playlist searches for channel-less videos
//     - Reports discovery through named callbacks and a progress channel
//
//  2. [Engine.Intersection] : Which displayed videos belong to a playlist
//     - Answers from the per-playlist match cache when possible
//     - Computes the index intersection otherwise
//     - Probes a bounded number of unknowns when the local answer is empty
//
//  3. [Engine.SaveSnapshot] / [Engine.LoadSnapshot] : Durable state
//     - Atomic write-then-rename JSON snapshot of index + last search
//     - Missing or corrupt snapshots load as an empty, valid session
//
// # Progress Reporting
//
// Operations send [ProgressUpdate] values over a non-blocking channel
// (select with default), and scans additionally invoke the typed
// [ScanCallbacks]. Callback invocations are serialized by the scan.
//
// # Concurrency
//
// Scan units run on a bounded worker pool. The index, both membership
// caches, the assigner and the scan state each carry their own mutex. A
// superseding scan (new search, Stop, SetResults) bumps the engine
// generation; stale units drain without applying results.
package tasks
