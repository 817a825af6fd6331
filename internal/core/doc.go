// Package core provides the record extraction and synchronization logic for
// the daily report dataset.
//
// # Pipeline
//
// A run moves data in one direction:
//
//	dataset directory -> Registry (classify header) -> Binding.Extract (per row)
//	    -> RecordSet -> Synchronizer -> storage delta
//
// [Runner.Run] sequences it and decides, from the mirror's update check and
// the caller's options, whether ingestion happens at all.
//
// # Header Registry
//
// Each known CSV layout is declared as a [Layout]: the exact header and the
// column behind each logical field. [NewRegistry] turns layouts into
// [Binding] values carrying the filters of the active [Scope]:
//
//	reg, err := core.NewRegistry(core.NewScope("US", "any"), layouts.Default()...)
//	b, err := reg.Resolve(header) // ErrNotRecognized if no layout matches
//	rec, err := b.Extract(row)   // ErrRowLength or ErrFiltered on rejection
//
// Header matching is exact and ordered after non-ASCII bytes are stripped.
//
// # Ingestion
//
// [Ingest] reads one goroutine per file, capped by [IngestOptions.MaxOpenFiles].
// Each worker returns its own result; results are merged only after every
// worker finished. Per-file and per-row problems become counters in [Stats].
//
// # Synchronization
//
// [Synchronizer.Sync] loads the stored records in scope, keeps candidates whose
// [Key] is absent, and appends them with one bulk write. Storage errors are
// the only failures that abort a run.
package core
