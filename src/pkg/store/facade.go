package store

import (
	"path/filepath"

	"github.com/frame-vault/framevault/src/pkg/ledger"
)

// Read-only lookups. These load the ledger fresh on every call: the
// ledger save is atomic and items are immutable, so no lock is needed
// and no stale in-memory mirror can desync from disk.

// List returns every stored item, oldest first.
func (s *Store) List() ([]ledger.Item, error) {
	led, loadErr := s.ledger.Load()
	if loadErr != nil {
		return nil, loadErr
	}
	return led.Items, nil
}

// Get looks a single item up by sequence.
func (s *Store) Get(sequence int) (ledger.Item, bool, error) {
	led, loadErr := s.ledger.Load()
	if loadErr != nil {
		return ledger.Item{}, false, loadErr
	}
	item, _, found := led.Find(sequence)
	return item, found, nil
}

// ImagePath resolves a sequence to the canonical raster file path.
func (s *Store) ImagePath(sequence int) (string, bool, error) {
	item, found, err := s.Get(sequence)
	if err != nil || !found {
		return "", false, err
	}
	return filepath.Join(s.root, item.Filename), true, nil
}

// DocumentPath resolves a sequence to the original PDF path, when the
// item was uploaded as a PDF.
func (s *Store) DocumentPath(sequence int) (string, bool, error) {
	item, found, err := s.Get(sequence)
	if err != nil || !found || item.DocumentFilename == "" {
		return "", false, err
	}
	return filepath.Join(s.root, item.DocumentFilename), true, nil
}
