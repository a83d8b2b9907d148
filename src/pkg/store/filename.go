package store

import (
	"fmt"
	"path/filepath"
	"strings"
)

const ledgerFilename = "metadata.json"

// imageFilename encodes sequence, creation timestamp, content hash and
// the caller-supplied name fragment, so filenames double as a crude
// audit trail independent of the ledger.
func imageFilename(sequence int, timestamp int64, hash, name string) string {
	return fmt.Sprintf("img_%03d_%d_%s_%s.png", sequence, timestamp, hash, name)
}

func documentFilename(sequence int, timestamp int64, hash, name string) string {
	return fmt.Sprintf("image_%d_%d_%s_%s.pdf", sequence, timestamp, hash, name)
}

// sanitizeName reduces a user-supplied display name to a safe filename
// fragment, falling back when nothing survives.
func sanitizeName(name, fallback string) string {
	name = filepath.Base(name)
	if ext := filepath.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	cleaned := strings.Trim(b.String(), "_")
	if cleaned == "" || cleaned == "." {
		return fallback
	}
	return cleaned
}
