// Package repositories implements SQLite-backed persistence for the
// durable membership cache.
//
// [MembershipRepository] stores one row per (playlist, video) fact with a
// TTL: a hit is authoritative only until expiry, after which the row reads
// as a miss and the fact must be re-derived from the catalog. The schema
// lives in internal/shared/sql and is applied via shared.RunMigrations.
package repositories
