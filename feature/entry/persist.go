package entry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hw-isolation/core/codec"
	"hw-isolation/core/storage"
	"hw-isolation/feature/guard"
)

const blobVersion uint32 = 1

// blob is the persisted form of an entry.
type blob struct {
	Version      uint32        `cbor:"1,keyasint"`
	RecordID     uint32        `cbor:"2,keyasint"`
	Path         []byte        `cbor:"3,keyasint"`
	Severity     string        `cbor:"4,keyasint"`
	Resolved     bool          `cbor:"5,keyasint"`
	Associations []Association `cbor:"6,keyasint"`
	Elapsed      int64         `cbor:"7,keyasint"`
}

// Persisted is the decoded content of an entry file.
type Persisted struct {
	RecordID     uint32
	Path         guard.EntityPath
	Severity     Severity
	Resolved     bool
	Associations []Association
	Elapsed      time.Time
}

// Serialize writes the entry to its file.
func (e *Entry) Serialize(ctx context.Context) error {
	data, err := codec.Marshal(blob{
		Version:      blobVersion,
		RecordID:     e.recordID,
		Path:         e.path,
		Severity:     string(e.severity),
		Resolved:     e.resolved,
		Associations: e.associations,
		Elapsed:      e.elapsed.Unix(),
	})
	if err != nil {
		return fmt.Errorf("entry %d: failed to encode: %w", e.recordID, err)
	}
	if err := e.store.Put(ctx, FileName(e.recordID), data); err != nil {
		return fmt.Errorf("entry %d: %w", e.recordID, err)
	}
	return nil
}

// Load reads a persisted entry. The second return is false if no file exists.
func Load(ctx context.Context, store storage.Client, recordID uint32) (*Persisted, bool, error) {
	data, err := store.Get(ctx, FileName(recordID))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var b blob
	if err := codec.Unmarshal(data, &b); err != nil {
		return nil, false, fmt.Errorf("entry %d: failed to decode: %w", recordID, err)
	}
	if err := codec.CheckVersion("entry", b.Version, blobVersion); err != nil {
		return nil, false, err
	}

	return &Persisted{
		RecordID:     b.RecordID,
		Path:         guard.EntityPath(b.Path),
		Severity:     Severity(b.Severity),
		Resolved:     b.Resolved,
		Associations: b.Associations,
		Elapsed:      time.Unix(b.Elapsed, 0),
	}, true, nil
}
