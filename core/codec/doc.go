// Package codec provides the binary encoding used for every blob the
// hardware isolation manager persists.
//
// It wraps fxamacker/cbor with Core Deterministic Encoding so the same logical
// value always produces identical bytes. That property matters for the
// persisted entry files and the eco-core set: a re-serialization with no
// logical change produces a byte-identical file.
//
// # Versioning
//
// Blobs carry a Version field. The decoder ignores unknown fields, so a newer
// writer may add fields without breaking an older reader. Readers reject
// versions newer than they understand through CheckVersion.
//
// # Usage
//
//	data, err := codec.Marshal(blob)
//	err = codec.Unmarshal(data, &blob)
package codec
