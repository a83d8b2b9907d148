package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/frame-vault/framevault/src/pkg/utils"
)

func TestHashIsStable(t *testing.T) {
	a := utils.Hash([]byte("payload"))
	b := utils.Hash([]byte("payload"))
	if a != b {
		t.Fatalf("hash not deterministic: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("unexpected hash length %d", len(a))
	}
	if a == utils.Hash([]byte("other payload")) {
		t.Fatal("distinct inputs hashed to the same value")
	}
}

func TestShortHash(t *testing.T) {
	full := utils.Hash([]byte("payload"))
	short := utils.ShortHash([]byte("payload"), 8)
	if short != full[:8] {
		t.Fatalf("short hash %s is not a prefix of %s", short, full)
	}
	if got := utils.ShortHash([]byte("payload"), 1000); got != full {
		t.Fatalf("oversized n must clamp to the full hash, got %s", got)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	if err := utils.WriteFileAtomic(path, []byte("first"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := utils.WriteFileAtomic(path, []byte("second"), 0644); err != nil {
		t.Fatal(err)
	}

	contents, readErr := os.ReadFile(path)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if string(contents) != "second" {
		t.Fatalf("unexpected contents %q", contents)
	}

	// No temp files may survive a successful write.
	entries, dirErr := os.ReadDir(dir)
	if dirErr != nil {
		t.Fatal(dirErr)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the target file, found %d entries", len(entries))
	}
}

func TestWriteFileAtomicMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.json")
	if err := utils.WriteFileAtomic(path, []byte("data"), 0644); err == nil {
		t.Fatal("expected an error when the directory does not exist")
	}
}
