package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound is returned by Get when the named object does not exist.
var ErrNotFound = errors.New("object not found")

// Client defines the interface for persisted-blob operations.
// Every object is a single file inside one directory.
type Client interface {
	// Put writes an object, replacing any previous content atomically.
	Put(ctx context.Context, name string, data []byte) error
	// Get reads an object. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, name string) ([]byte, error)
	// Exists checks if an object exists.
	Exists(ctx context.Context, name string) (bool, error)
	// Remove deletes an object. Removing a missing object is not an error.
	Remove(ctx context.Context, name string) error
	// List returns the names of all objects in lexical order.
	List(ctx context.Context) ([]string, error)
}

// NewClient creates a directory-backed client rooted at dir.
// The directory is created if it does not exist.
func NewClient(dir string, mode os.FileMode) (Client, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage directory is not configured")
	}
	if mode == 0 {
		mode = 0644
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}

	return &dirClient{dir: dir, mode: mode}, nil
}

type dirClient struct {
	dir  string
	mode os.FileMode
}

func (c *dirClient) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := c.path(name)
	if err != nil {
		return err
	}

	// Write to a sibling temp file and rename so a reader never sees a
	// half-written object.
	tmp, err := os.CreateTemp(c.dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Chmod(tmpName, c.mode); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", name, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to commit %s: %w", name, err)
	}
	return nil
}

func (c *dirClient) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := c.path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

func (c *dirClient) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	path, err := c.path(name)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", name, err)
	}
	return true, nil
}

func (c *dirClient) Remove(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := c.path(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}

func (c *dirClient) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c.dir, err)
	}

	names := make([]string, 0, len(dirEntries))
	for _, de := range dirEntries {
		// Skip directories and in-flight temp files
		if de.IsDir() || strings.HasPrefix(de.Name(), ".") {
			continue
		}
		names = append(names, de.Name())
	}
	sort.Strings(names)
	return names, nil
}

// path validates an object name and returns its absolute location.
func (c *dirClient) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	return filepath.Join(c.dir, name), nil
}
