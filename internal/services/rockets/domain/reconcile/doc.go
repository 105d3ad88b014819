// Package reconcile turns unordered, at-least-once rocket events into the
// per-rocket projection.
//
// Ingest is the authoritative path: it suppresses duplicates by rocket id and
// sequence, appends the event, replays the rocket's full log through
// state.Fold, and overwrites the projection. Because every projection is a
// recomputation from the log, a failed or raced ingestion converges the next
// time any event for that rocket is ingested.
//
// Advance is the incremental path. It folds a single event on top of the
// stored projection and rejects events at or below the projection's last
// sequence. It agrees with replay only when events arrive in strict sequence
// order, so Ingest uses it only when the event is exactly the next sequence
// and WithIncrementalFastPath is enabled.
package reconcile
