package ftpsync

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileSystem is the local storage used for downloads and the ledger file.
//
// ReadFile must return an error satisfying errors.Is(err, fs.ErrNotExist)
// for missing files.
type FileSystem interface {
	// EnsureDir creates dir and any missing parents. It is idempotent.
	EnsureDir(dir string) error

	// Create opens name for writing, truncating an existing file.
	Create(name string) (io.WriteCloser, error)

	// Remove deletes name.
	Remove(name string) error

	// ReadFile returns the whole content of name.
	ReadFile(name string) ([]byte, error)

	// WriteFile replaces the content of name with data.
	WriteFile(name string, data []byte) error
}

// OSFileSystem implements FileSystem on the local disk.
type OSFileSystem struct{}

// EnsureDir implements FileSystem.
func (OSFileSystem) EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// Create implements FileSystem.
func (OSFileSystem) Create(name string) (io.WriteCloser, error) {
	return os.Create(name)
}

// Remove implements FileSystem.
func (OSFileSystem) Remove(name string) error {
	return os.Remove(name)
}

// ReadFile implements FileSystem.
func (OSFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// WriteFile implements FileSystem. The data is written to a temporary file
// in the same directory and renamed over name, so readers never observe a
// half-written file.
func (OSFileSystem) WriteFile(name string, data []byte) error {
	dir := filepath.Dir(name)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(name)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, name); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}
