// Package tasks builds playlists into Rekordbox documents with real-time progress reporting.
//
// # Build
//
// [Builder.Run] performs one build:
//
//  1. Loads the input document (malformed track attributes are logged and counted)
//  2. Resolves and validates every configured parser before anything is written
//  3. Runs classifiers, then combiners, in declaration order
//  4. Writes the sibling auto_<name> document under an advisory lock
//
// A build moves through the [State] values Idle, Loaded, Classifying, Combining, Serialized and
// Done. Transitions only move forward; an illegal one is returned as an error.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for richer
// CLI rendering. Updates use select with default to prevent blocking.
//
// # Run History
//
// The optional [RunRecorder] interface receives every finished build, failed ones included.
// Recorder errors are logged and never fail the build.
package tasks
