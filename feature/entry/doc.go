// Package entry holds the per-record management object of the isolation
// manager.
//
// An Entry mirrors one active guard record: its severity, resolved flag,
// associations to the isolated hardware and optional error log, creation
// timestamp and eco-core flag. Entries are owned by a table (see Owner) that
// serialises all access; Resolve calls back into the owner to clear the guard
// record, re-enable the hardware and drop the entry.
//
// Each entry persists itself as a versioned CBOR blob named by its record id.
// The owner deletes files of entries that no longer exist.
//
// Severity mapping:
//
//	Critical <-> Fatal (Unrecoverable also reads as Critical)
//	Warning  <-> Predictive (Power, PHYP, Reconfig, StickyDeconfig read as Warning)
//	Manual   <-> Manual (EcoCore reads as Manual)
//	Spare        no guard type
package entry
