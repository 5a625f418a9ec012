// Package models defines domain entities for the playdex reconciliation engine.
//
// The package contains plain data types shared across the engine:
//   - [Video] : catalog video metadata plus the reconciled playlist assignment
//   - [Playlist] : catalog playlist metadata plus its known member-id set
//   - [SearchState] : the last video search (query, results, pagination tokens)
//   - [SnapshotDocument] : the durable serialization of index + search state
//
// Types here own no behavior beyond their JSON shape; storage, linking and
// discovery live in internal/index and internal/tasks.
package models
