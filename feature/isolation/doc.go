// Package isolation is the hardware isolation record manager.
//
// The Manager owns the table of isolation entries (one per active guard
// record) and the persisted eco-core set, and keeps both consistent with the
// guard partition, which the host rewrites on its own.
//
// # Direct operations
//
// Create, CreateWithErrorLog and CreateWithEntityPath share one flow:
//
//  1. Policy: the isolation setting must be enabled (ErrUnavailable) and
//     manual isolation needs the chassis powered off (ErrNotAllowed).
//  2. Resolve the hardware through the Locator (ErrInvalidArgument).
//  3. Translate the error log, if any, to its numeric id (ErrInvalidArgument).
//  4. Map the severity to a guard type (ErrInvalidArgument).
//  5. Create the guard record.
//  6. Update the entry already mirroring that record, or create one. When
//     creation fails the guard record is cleared again (ErrInternalFailure),
//     so a failed call leaves nothing behind.
//
// DeleteEntry and DeleteAll are gated by the same setting and power checks.
//
// # Reconciliation
//
// Restore runs once at startup: every valid, non-ephemeral record is mirrored,
// then entry files nobody owns are deleted and the eco-core set is pruned.
//
// At runtime the guard file watch calls ProcessRecordFileChange. A Debouncer
// arms one timer (Config.Debounce, 5s by default) and coalesces further
// signals until it fires; Reconcile then lists the store, builds a plan with
// package reconcile and applies it action by action. A failing action is
// logged and counted, never returned, so one bad record cannot block the
// others.
//
// # Concurrency
//
// Every exported method takes the manager lock for its whole duration,
// including calls to the guard store and the bus. Entries call back into the
// manager (see tableOwner) only while that lock is held.
//
// # HTTP
//
// Feature exposes the operations under /hardware_isolation through a
// Service/Handler pair, mapping the sentinel errors to 400/403/503/404/500.
package isolation
