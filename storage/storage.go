// Package storage abstracts the blob store that task attachments are written to.
// The application records only the relative path returned by Put; serving the
// stored bytes is handled separately (a static file route in main).
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/user/taskman-go/apperror"
)

// Store writes uploaded blobs under a logical prefix ("files", "images") and
// returns the relative path they can later be retrieved by.
type Store interface {
	Put(ctx context.Context, prefix, originalName string, r io.Reader) (string, error)
}

// DiskStore is a Store backed by a local directory. Object names are random
// UUIDs preserving the original file extension, so uploads never collide and the
// original client filename is never trusted for anything but its extension.
type DiskStore struct {
	root string
}

// NewDiskStore creates a DiskStore rooted at the given directory, creating it
// if necessary.
func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, apperror.NewInternalError(fmt.Sprintf("failed to create storage root %s", root), err)
	}
	return &DiskStore{root: root}, nil
}

// Root returns the directory blobs are stored under.
func (s *DiskStore) Root() string {
	return s.root
}

// Put streams the reader to disk under prefix and returns the relative path,
// e.g. "files/9f1c...d2.pdf".
func (s *DiskStore) Put(ctx context.Context, prefix, originalName string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	relPath := filepath.Join(prefix, uuid.NewString()+ext)

	absPath := filepath.Join(s.root, relPath)
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", apperror.NewInternalError("failed to create storage directory", err)
	}

	f, err := os.Create(absPath)
	if err != nil {
		return "", apperror.NewInternalError("failed to create blob file", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(absPath)
		return "", apperror.NewInternalError("failed to write blob file", err)
	}

	// Paths are recorded with forward slashes regardless of OS.
	return filepath.ToSlash(relPath), nil
}
