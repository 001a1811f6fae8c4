// Package storage defines the base-directory file-system abstraction.
package storage

import "time"

// DirInfo describes one candidate directory directly under the base root.
type DirInfo struct {
	Name    string    `json:"name"`
	ModTime time.Time `json:"mod_time"`
}

// Provider is the interface for base-directory file operations.
type Provider interface {
	// Root returns the absolute base directory.
	Root() string
	// ListDirs returns the immediate subdirectories of the root, most recent first.
	ListDirs() ([]DirInfo, error)
	// ResolveDir returns the absolute path of an existing directory rel
	// (relative to root). Missing directories yield apperr.ErrNotFound.
	ResolveDir(rel string) (string, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
}
