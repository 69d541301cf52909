package guard

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"hw-isolation/core/codec"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

// ErrRecordNotFound is returned by Clear when no active record has the id.
var ErrRecordNotFound = errors.New("guard record not found")

// Store is the contract of the host-shared guard partition.
type Store interface {
	// List returns all records, optionally without ephemeral types.
	List(ctx context.Context, excludeEphemeral bool) ([]Record, error)
	// Create records a fault for path and returns the stored record.
	Create(ctx context.Context, path EntityPath, elogID uint32, t Type) (Record, error)
	// Clear invalidates the record with the given id.
	Clear(ctx context.Context, recordID uint32) error
}

const (
	fileVersion  uint32 = 1
	lockInterval        = 20 * time.Millisecond
	firstID      uint32 = 1
)

// fileImage is the on-disk layout of the guard file.
type fileImage struct {
	Version uint32   `cbor:"1,keyasint"`
	NextID  uint32   `cbor:"2,keyasint"`
	Records []Record `cbor:"3,keyasint"`
}

// FileStore implements Store on a CBOR file guarded by an advisory lock so
// the host-side writer and this process never interleave.
type FileStore struct {
	path   string
	lock   *flock.Flock
	logger *zap.Logger
	mu     sync.Mutex
}

// NewFileStore opens (without creating) the guard file described by cfg.
func NewFileStore(cfg Config, logger *zap.Logger) (*FileStore, error) {
	if cfg.File == "" {
		return nil, fmt.Errorf("guard file is not configured")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, fmt.Errorf("failed to create guard directory: %w", err)
	}

	return &FileStore{
		path:   cfg.File,
		lock:   flock.New(cfg.LockPath()),
		logger: logger,
	}, nil
}

// Path returns the guard file location.
func (s *FileStore) Path() string {
	return s.path
}

// List implements Store.
func (s *FileStore) List(ctx context.Context, excludeEphemeral bool) ([]Record, error) {
	var out []Record
	err := s.withLock(ctx, false, func(img *fileImage) (bool, error) {
		out = make([]Record, 0, len(img.Records))
		for _, r := range img.Records {
			if excludeEphemeral && r.ErrType.IsEphemeral() {
				continue
			}
			out = append(out, r)
		}
		return false, nil
	})
	return out, err
}

// Create implements Store. A valid record already present for the same path
// is overridden in place and keeps its record id.
func (s *FileStore) Create(ctx context.Context, path EntityPath, elogID uint32, t Type) (Record, error) {
	if len(path) == 0 {
		return Record{}, fmt.Errorf("empty entity path")
	}

	var out Record
	err := s.withLock(ctx, true, func(img *fileImage) (bool, error) {
		for i := range img.Records {
			r := &img.Records[i]
			if r.Valid() && r.TargetID.Equal(path) {
				s.logger.Info("Overriding existing guard record",
					zap.Uint32("record_id", r.RecordID),
					zap.Stringer("path", path),
					zap.Stringer("old_type", r.ErrType),
					zap.Stringer("new_type", t))
				r.ElogID = elogID
				r.ErrType = t
				out = *r
				return true, nil
			}
		}

		if img.NextID == InvalidRecordID {
			return false, fmt.Errorf("guard record ids exhausted")
		}
		out = Record{
			RecordID: img.NextID,
			TargetID: append(EntityPath(nil), path...),
			ElogID:   elogID,
			ErrType:  t,
		}
		img.NextID++
		img.Records = append(img.Records, out)
		return true, nil
	})
	return out, err
}

// Clear implements Store. The record stays in the file with the sentinel id.
func (s *FileStore) Clear(ctx context.Context, recordID uint32) error {
	if recordID == InvalidRecordID {
		return fmt.Errorf("record %#x: %w", recordID, ErrRecordNotFound)
	}
	return s.withLock(ctx, true, func(img *fileImage) (bool, error) {
		for i := range img.Records {
			if img.Records[i].RecordID == recordID {
				img.Records[i].RecordID = InvalidRecordID
				return true, nil
			}
		}
		return false, fmt.Errorf("record %d: %w", recordID, ErrRecordNotFound)
	})
}

// ClearAll invalidates every active record and returns how many were cleared.
func (s *FileStore) ClearAll(ctx context.Context) (int, error) {
	cleared := 0
	err := s.withLock(ctx, true, func(img *fileImage) (bool, error) {
		for i := range img.Records {
			if img.Records[i].Valid() {
				img.Records[i].RecordID = InvalidRecordID
				cleared++
			}
		}
		return cleared > 0, nil
	})
	return cleared, err
}

// withLock loads the image under the file lock, runs fn and writes the image
// back when fn reports a change.
func (s *FileStore) withLock(ctx context.Context, exclusive bool, fn func(*fileImage) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		locked bool
		err    error
	)
	if exclusive {
		locked, err = s.lock.TryLockContext(ctx, lockInterval)
	} else {
		locked, err = s.lock.TryRLockContext(ctx, lockInterval)
	}
	if err != nil {
		return fmt.Errorf("failed to lock guard file: %w", err)
	}
	if !locked {
		return fmt.Errorf("guard file is locked by another process")
	}
	defer func() {
		if uerr := s.lock.Unlock(); uerr != nil {
			s.logger.Warn("Failed to unlock guard file", zap.Error(uerr))
		}
	}()

	img, err := s.read()
	if err != nil {
		return err
	}

	changed, err := fn(img)
	if err != nil || !changed {
		return err
	}
	return s.write(img)
}

func (s *FileStore) read() (*fileImage, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && len(data) == 0) {
		return &fileImage{Version: fileVersion, NextID: firstID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read guard file: %w", err)
	}

	img := &fileImage{}
	if err := codec.Unmarshal(data, img); err != nil {
		return nil, fmt.Errorf("failed to decode guard file: %w", err)
	}
	if err := codec.CheckVersion("guard", img.Version, fileVersion); err != nil {
		return nil, err
	}
	if img.NextID < firstID {
		img.NextID = firstID
	}
	return img, nil
}

func (s *FileStore) write(img *fileImage) error {
	img.Version = fileVersion
	data, err := codec.Marshal(img)
	if err != nil {
		return fmt.Errorf("failed to encode guard file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp guard file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write guard file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close guard file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to commit guard file: %w", err)
	}
	return nil
}
