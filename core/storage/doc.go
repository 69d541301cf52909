// Package storage provides an abstraction layer for persisted state.
//
// The hardware isolation manager persists two kinds of blobs: one file per
// active isolation entry (named by its record id) and a single file holding the
// eco-core set. Both live in fixed directories on the BMC's persistent
// partition. This package wraps a directory behind a small object-style Client
// interface so callers never build file paths themselves.
//
// # Client Interface
//
// The Client interface abstracts the underlying directory, making it easier
// to mock persistence for unit testing (as seen in core/storage/mocks).
//
// # Operations
//
//   - Put: Writes an object atomically (temp file + rename).
//   - Get: Reads an object, returning ErrNotFound when absent.
//   - Exists: Checks for an object.
//   - Remove: Deletes an object; removing a missing object succeeds.
//   - List: Lists object names, skipping in-flight temp files.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage.EntryDir, 0644)
//	err = client.Put(ctx, "17", data)
package storage
