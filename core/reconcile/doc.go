// Package reconcile plans a reconciliation pass between the isolation entry
// table and a fresh guard record listing.
//
// The planner is pure: it takes a snapshot of the table (record id and join
// key per entry) and the listed records, and returns an ordered Plan. It never
// touches either side; the isolation manager applies the plan one action at a
// time and absorbs per-action failures so one bad record never aborts a pass.
//
// # Rules
//
// For each existing entry, records sharing its key are inspected:
//
//	no record              -> ActionResolve
//	no valid record        -> ActionResolve
//	one valid record       -> ActionUpdate
//	several valid records  -> ActionCorrupt (logged, entry untouched)
//
// Then every valid record whose key is not mirrored yet becomes ActionCreate.
// An empty listing with entries present yields ClearAll with one resolve per
// entry.
//
// # Usage
//
//	plan := reconcile.Build(entries, records, reconcile.Source[guard.Record]{
//	    Key:   func(r guard.Record) string { return r.TargetID.Key() },
//	    Valid: guard.Record.Valid,
//	})
//	for _, a := range plan.Actions { ... }
package reconcile
