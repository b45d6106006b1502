// Package storage defines the output vault file-system abstraction.
package storage

import (
	"io"

	"github.com/starford/dayvault/internal/models"
)

// Provider is the interface for vault file operations. Paths are relative
// to the vault root and use forward slashes.
type Provider interface {
	// List returns metadata for every file with the given extension under dir.
	// An empty ext lists every file.
	List(dir, ext string) ([]models.VaultFile, error)
	// Exists reports whether a file is present at path.
	Exists(path string) (bool, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// WriteFrom atomically writes everything read from r to path.
	WriteFrom(path string, r io.Reader) error
	// MkdirAll creates dir and any missing parents.
	MkdirAll(dir string) error
}
