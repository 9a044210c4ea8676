package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"luxdrive/internal/models"
)

// Document is the whole flat-file database.
type Document struct {
	Users    []models.User    `json:"users"`
	Bookings []models.Booking `json:"bookings"`
	Cars     []models.Car     `json:"cars"`
}

func (d *Document) normalize() {
	if d.Users == nil {
		d.Users = []models.User{}
	}
	if d.Bookings == nil {
		d.Bookings = []models.Booking{}
	}
	if d.Cars == nil {
		d.Cars = []models.Car{}
	}
}

// FileStore keeps the whole database in one JSON file. Every Load reads the file
// again, so edits made outside the process are picked up. Writers inside the
// process are serialised; writers in other processes are not.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a FileStore backed by path, creating its directory.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("file store path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory '%s': %w", dir, err)
		}
	}
	return &FileStore{path: path}, nil
}

// Path returns the file the store reads and writes.
func (s *FileStore) Path() string { return s.path }

// Load returns the full document, or an empty one when the file does not exist.
func (s *FileStore) Load() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			doc := &Document{}
			doc.normalize()
			return doc, nil
		}
		return nil, fmt.Errorf("failed to read '%s': %w", s.path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode '%s': %w", s.path, err)
	}
	doc.normalize()
	return &doc, nil
}

// Save overwrites the file with doc. The new content is written to a temporary
// file first and renamed over the old one.
func (s *FileStore) Save(doc *Document) error {
	doc.normalize()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace '%s': %w", s.path, err)
	}
	return nil
}

// Update runs fn against a freshly loaded document and saves the result, holding
// the store lock for the whole read-modify-write. If fn fails nothing is saved.
func (s *FileStore) Update(fn func(doc *Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.Load()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return s.Save(doc)
}
