// Package guard models the host-shared guard partition: the durable list of
// fault markers ("guard records") written by both the BMC and host firmware.
//
// # Records
//
// A Record pairs a hardware location (EntityPath, compared byte for byte)
// with the error log that caused it and a guard Type. A record whose id is
// InvalidRecordID has been cleared and must never be treated as active.
// Reconfig and StickyDeconfig records are ephemeral host bookkeeping and can
// be excluded from listings.
//
// # Store
//
// Store is the contract consumed by the isolation manager. FileStore is the
// emulated partition used on this BMC: a CBOR image written atomically and
// serialised with an advisory flock. Its semantics follow the firmware
// library it stands in for:
//   - record ids are assigned monotonically and never reused,
//   - creating a record for a location that already has an active record
//     overrides that record in place (same id),
//   - clearing a record keeps it in the image with the sentinel id.
package guard
