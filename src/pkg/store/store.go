// Package store orchestrates validate, normalize, persist, evict and
// ledger update as one serialized unit per operation.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/frame-vault/framevault/src/pkg/ledger"
	"github.com/frame-vault/framevault/src/pkg/normalize"
	"github.com/frame-vault/framevault/src/pkg/utils"
)

var ErrStorageWrite = errors.New("storage write failed")

const hashLen = 8

// EventType labels a completed mutation.
type EventType string

const (
	EventStored  EventType = "stored"
	EventDeleted EventType = "deleted"
	EventCleared EventType = "cleared"
)

// Event describes a completed mutation for subscribers.
type Event struct {
	Type      EventType `json:"type"`
	Sequence  int       `json:"sequence,omitempty"`
	Filename  string    `json:"filename,omitempty"`
	Count     int       `json:"count,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// Notifier receives events after the ledger save committed them.
// Implementations must not block.
type Notifier interface {
	Notify(Event)
}

// Store owns the single on-disk resource: the ledger document and the
// item files living side by side in one directory. Every mutation holds
// the instance mutex for its entire duration; reads go through the
// unlocked facade.
type Store struct {
	root       string
	ledger     *ledger.File
	normalizer *normalize.Normalizer

	mu       sync.Mutex
	capacity int

	notifiers []Notifier
}

func New(root string, capacity int, normalizer *normalize.Normalizer) (*Store, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("capacity must be at least 1: %d", capacity)
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &Store{
		root:       root,
		ledger:     ledger.NewFile(filepath.Join(root, ledgerFilename)),
		normalizer: normalizer,
		capacity:   capacity,
	}, nil
}

// Subscribe registers a notifier. Not safe to call once mutations have
// started; wire everything up before serving.
func (s *Store) Subscribe(n Notifier) {
	s.notifiers = append(s.notifiers, n)
}

func (s *Store) Capacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capacity
}

// Put normalizes the upload, persists it under the next sequence and
// evicts the oldest item first when the window is full. The ledger save
// is the commit point: nothing before it leaves a sequence consumed.
func (s *Store) Put(raw []byte, name string) (ledger.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, normErr := s.normalizer.Normalize(raw)
	if normErr != nil {
		return ledger.Item{}, normErr
	}

	led, loadErr := s.ledger.Load()
	if loadErr != nil {
		return ledger.Item{}, loadErr
	}

	now := time.Now()
	sequence := led.NextSequence
	filename := imageFilename(sequence, now.Unix(), utils.ShortHash(result.PNG, hashLen), sanitizeName(name, "image"))

	docFilename := ""
	if result.Document != nil {
		docFilename = documentFilename(sequence, now.Unix(), utils.ShortHash(result.Document, hashLen), sanitizeName(name, "doc"))
	}

	// Evict before insert: index 0 is always the oldest.
	if len(led.Items) > 0 && len(led.Items) >= s.capacity {
		oldest := led.Items[0]
		led.Items = led.Items[1:]
		s.removeItemFiles(oldest)
		slog.Info("evicted oldest image", "sequence", oldest.Sequence, "filename", oldest.Filename)
	}

	imagePath := filepath.Join(s.root, filename)
	if writeErr := os.WriteFile(imagePath, result.PNG, 0644); writeErr != nil {
		return ledger.Item{}, errors.Join(ErrStorageWrite, writeErr)
	}

	if docFilename != "" {
		docPath := filepath.Join(s.root, docFilename)
		if writeErr := os.WriteFile(docPath, result.Document, 0644); writeErr != nil {
			// Roll back the raster so no half-written pair survives.
			if rmErr := os.Remove(imagePath); rmErr != nil {
				slog.Warn("failed to roll back image file", "path", imagePath, "error", rmErr)
			}
			return ledger.Item{}, errors.Join(ErrStorageWrite, writeErr)
		}
	}

	item := ledger.Item{
		Sequence:         sequence,
		Filename:         filename,
		DocumentFilename: docFilename,
		Timestamp:        now.Unix(),
		CreatedAt:        now.UTC(),
		Size:             len(result.PNG),
		Width:            result.Width,
		Height:           result.Height,
	}

	led.Items = append(led.Items, item)
	led.NextSequence = sequence + 1

	if saveErr := s.ledger.Save(led); saveErr != nil {
		// The commit failed; drop the files so no orphans accumulate.
		s.removeItemFiles(item)
		return ledger.Item{}, saveErr
	}

	slog.Info("stored image", "sequence", sequence, "filename", filename, "size", item.Size)
	s.notify(Event{Type: EventStored, Sequence: sequence, Filename: filename, Timestamp: now.Unix()})
	return item, nil
}

// Delete removes the item with the given sequence. A missing sequence
// is reported via the bool, not an error. Sequence numbers are never
// reissued after a single delete.
func (s *Store) Delete(sequence int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	led, loadErr := s.ledger.Load()
	if loadErr != nil {
		return false, loadErr
	}

	item, index, found := led.Find(sequence)
	if !found {
		return false, nil
	}

	led.Items = append(led.Items[:index], led.Items[index+1:]...)
	s.removeItemFiles(item)

	if saveErr := s.ledger.Save(led); saveErr != nil {
		return false, saveErr
	}

	slog.Info("deleted image", "sequence", sequence, "filename", item.Filename)
	s.notify(Event{Type: EventDeleted, Sequence: sequence, Filename: item.Filename, Timestamp: time.Now().Unix()})
	return true, nil
}

// DeleteAll removes every stored file and resets the ledger, restarting
// sequence numbering at 1. Returns the count of files actually removed.
func (s *Store) DeleteAll() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	led, loadErr := s.ledger.Load()
	if loadErr != nil {
		return 0, loadErr
	}

	removed := 0
	for _, item := range led.Items {
		if s.removeFile(item.Filename) {
			removed++
		}
		if item.DocumentFilename != "" {
			s.removeFile(item.DocumentFilename)
		}
	}

	if saveErr := s.ledger.Save(ledger.Empty()); saveErr != nil {
		return removed, saveErr
	}

	slog.Info("deleted all images", "removed", removed)
	s.notify(Event{Type: EventCleared, Count: removed, Timestamp: time.Now().Unix()})
	return removed, nil
}

// Reconcile applies a new capacity, trimming oldest items when the
// window shrank below the current count. A one-time catch-up pass, not
// part of the steady-state Put path.
func (s *Store) Reconcile(capacity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.capacity = capacity

	led, loadErr := s.ledger.Load()
	if loadErr != nil {
		return loadErr
	}

	if len(led.Items) <= capacity {
		return nil
	}

	excess := len(led.Items) - capacity
	for _, item := range led.Items[:excess] {
		s.removeItemFiles(item)
		slog.Info("trimmed excess image", "sequence", item.Sequence, "filename", item.Filename)
	}
	led.Items = led.Items[excess:]

	return s.ledger.Save(led)
}

// removeItemFiles is the single best-effort cleanup path shared by
// eviction, delete and delete-all. A failure on one file never prevents
// removal of its sibling or the ledger update.
func (s *Store) removeItemFiles(item ledger.Item) {
	s.removeFile(item.Filename)
	if item.DocumentFilename != "" {
		s.removeFile(item.DocumentFilename)
	}
}

func (s *Store) removeFile(name string) bool {
	if name == "" {
		return false
	}
	if rmErr := os.Remove(filepath.Join(s.root, name)); rmErr != nil {
		if !os.IsNotExist(rmErr) {
			slog.Warn("failed to remove file", "filename", name, "error", rmErr)
		}
		return false
	}
	return true
}

func (s *Store) notify(event Event) {
	for _, n := range s.notifiers {
		n.Notify(event)
	}
}
