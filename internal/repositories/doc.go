// Package repositories implements SQLite persistence for build history.
//
// [RunRepository] stores one row per build in runs and the playlists it wrote in run_playlists.
// Deletes are soft via deleted_at and deleted runs are excluded from queries.
//
// Sequence numbers give runs a stable, human-readable order (run #42) independent of UUIDs and
// timestamps. [NextSequence] atomically increments per-table counters kept in dedicated sequence tables.
package repositories
