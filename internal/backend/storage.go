package backend

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Storage keeps receipt files
type Storage interface {
	// Save writes a receipt and returns the key to read it back with
	Save(filename string, data []byte) (string, error)

	// Get reads the receipt stored under key
	Get(key string) ([]byte, error)

	// Delete removes the receipt stored under key
	Delete(key string) error
}

// LocalStorage keeps receipts flat in one directory. Keys are reduced to their
// base name, so no key reaches outside that directory.
type LocalStorage struct {
	dir string
}

// NewLocalStorage creates dir if needed
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &LocalStorage{dir: dir}, nil
}

// storageKey turns a file name into the flat name it is stored under
func storageKey(name string) (string, error) {
	k := filepath.Base(filepath.Clean("/" + name))
	if k == "/" || k == "." {
		return "", fmt.Errorf("invalid receipt name %q", name)
	}
	return k, nil
}

// Save writes the receipt through a temporary file so readers never see half a file
func (l *LocalStorage) Save(filename string, data []byte) (string, error) {
	k, err := storageKey(filename)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(l.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(l.dir, k)); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing file: %w", err)
	}
	return k, nil
}

// Get reads a receipt
func (l *LocalStorage) Get(name string) ([]byte, error) {
	k, err := storageKey(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(l.dir, k))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes a receipt
func (l *LocalStorage) Delete(name string) error {
	k, err := storageKey(name)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(l.dir, k)); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}
