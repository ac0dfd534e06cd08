// Package storage abstracts the device's persistent file system.
package storage

import (
	"os"
	"path/filepath"
)

// Store is the mounted-filesystem collaborator: flat file access by
// name. The real device mounts a flash filesystem behind this.
type Store interface {
	// ReadFile returns the file contents, or an error satisfying
	// os.IsNotExist when absent.
	ReadFile(name string) ([]byte, error)
	// WriteFile replaces the file contents atomically enough for a
	// single writer.
	WriteFile(name string, data []byte) error
	// Remove deletes the file. Removing an absent file is not an
	// error.
	Remove(name string) error
}

// Dir is a directory-backed Store.
type Dir struct {
	Path string
}

// NewDir creates a Dir store rooted at path, creating it if needed.
func NewDir(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, err
	}
	return &Dir{Path: path}, nil
}

// ReadFile implements Store.
func (d *Dir) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(d.Path, name))
}

// WriteFile implements Store.
func (d *Dir) WriteFile(name string, data []byte) error {
	return os.WriteFile(filepath.Join(d.Path, name), data, 0o644)
}

// Remove implements Store.
func (d *Dir) Remove(name string) error {
	err := os.Remove(filepath.Join(d.Path, name))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
