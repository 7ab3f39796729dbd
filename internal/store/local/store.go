// Package local is the emulation store used in demo mode and whenever no
// managed backend is configured. Each collection is one JSON document on an
// afero filesystem, so it runs equally well on disk or fully in memory.
package local

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	keyUsers      = "users.json"
	keyClients    = "clients.json"
	keyInvoices   = "invoices.json"
	keyShareLinks = "share_links.json"

	payloadDir = "pdf"
)

// Store is safe for use by one process. Several processes sharing a
// directory may lose each other's writes.
type Store struct {
	fs afero.Fs
	mu sync.Mutex
}

// New opens a store on fsys. A nil fsys gives an unavailable store.
func New(fsys afero.Fs) *Store {
	return &Store{fs: fsys}
}

// NewDisk keeps the collections under dir, creating it when missing
func NewDisk(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}

	return New(afero.NewBasePathFs(afero.NewOsFs(), dir)), nil
}

func NewMemory() *Store {
	return New(afero.NewMemMapFs())
}

// Unavailable returns a store with nothing behind it. Reads come back empty
// and writes are dropped.
func Unavailable() *Store {
	return &Store{}
}

func (s *Store) Available() bool {
	return s.fs != nil
}

// load decodes a whole collection. Missing or corrupted documents are
// treated as empty.
func load[T any](s *Store, key string) []T {
	if s.fs == nil {
		return nil
	}

	data, err := afero.ReadFile(s.fs, key)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			zap.L().Warn("Failed to read local collection", zap.String("key", key), zap.Error(err))
		}
		return nil
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		zap.L().Warn("Local collection is corrupted, treating it as empty", zap.String("key", key), zap.Error(err))
		return nil
	}

	return items
}

func save[T any](s *Store, key string, items []T) error {
	if s.fs == nil {
		return nil
	}

	if items == nil {
		items = []T{}
	}

	data, err := json.Marshal(items)
	if err != nil {
		return err
	}

	return afero.WriteFile(s.fs, key, data, 0o640)
}

// update runs a read-modify-write cycle on one collection under the store lock
func update[T any](s *Store, key string, fn func([]T) []T) error {
	if s.fs == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return save(s, key, fn(load[T](s, key)))
}

func read[T any](s *Store, key string) []T {
	s.mu.Lock()
	defer s.mu.Unlock()

	return load[T](s, key)
}
