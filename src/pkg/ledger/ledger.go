// Package ledger persists the metadata document that is the single
// source of truth for which items exist and the next sequence to issue.
// The directory listing is never used to reconstruct ordering.
package ledger

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/frame-vault/framevault/src/pkg/utils"
)

var ErrLedgerIO = errors.New("ledger I/O failure")

// Item is one persisted unit. Items are immutable once created; only
// their membership in the ledger changes.
type Item struct {
	Sequence int    `json:"sequence"`
	Filename string `json:"filename"`
	// DocumentFilename is set when the original upload was a PDF and
	// names the untouched original stored alongside the raster.
	DocumentFilename string    `json:"pdf_filename,omitempty"`
	Timestamp        int64     `json:"timestamp"`
	CreatedAt        time.Time `json:"created_at"`
	Size             int       `json:"size"`
	Width            int       `json:"width"`
	Height           int       `json:"height"`
}

// Ledger is the ordered item queue: index 0 is always the oldest,
// eviction targets index 0, insertion appends.
type Ledger struct {
	Items        []Item `json:"images"`
	NextSequence int    `json:"next_sequence"`
}

func Empty() Ledger {
	return Ledger{Items: nil, NextSequence: 1}
}

// Find returns the item with the given sequence and its position.
// Linear scan: the collection is bounded by the configured capacity.
func (l *Ledger) Find(sequence int) (Item, int, bool) {
	for i, item := range l.Items {
		if item.Sequence == sequence {
			return item, i, true
		}
	}
	return Item{}, -1, false
}

// File loads and saves a Ledger at a fixed path.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

// Load reads the ledger document. A missing or corrupt document yields
// the empty ledger: the ledger is advisory, reconstructible state, and
// availability wins over a hard failure here.
func (f *File) Load() (Ledger, error) {
	contents, readErr := os.ReadFile(f.path)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return Empty(), nil
		}
		return Empty(), errors.Join(ErrLedgerIO, readErr)
	}

	var l Ledger
	if unmarshalErr := json.Unmarshal(contents, &l); unmarshalErr != nil {
		slog.Error("failed to parse ledger, starting empty", "path", f.path, "error", unmarshalErr)
		return Empty(), nil
	}

	if l.NextSequence < 1 {
		l.NextSequence = 1
	}

	return l, nil
}

// Save atomically replaces the whole document so a concurrent Load
// never observes a partial write.
func (f *File) Save(l Ledger) error {
	contents, marshalErr := json.MarshalIndent(l, "", "  ")
	if marshalErr != nil {
		return errors.Join(ErrLedgerIO, marshalErr)
	}

	if writeErr := utils.WriteFileAtomic(f.path, contents, 0644); writeErr != nil {
		return errors.Join(ErrLedgerIO, writeErr)
	}

	return nil
}
