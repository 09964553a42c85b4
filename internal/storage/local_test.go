package storage

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestLocalStore_RoundTrip(t *testing.T) {
	t.Parallel()

	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}

	data := []byte("lecture notes about photosynthesis")
	reference, err := store.Store(context.Background(), data, "notes.txt")
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if !strings.HasSuffix(reference, ".txt") {
		t.Errorf("Expected reference to keep the extension, got %q", reference)
	}

	got, err := store.Retrieve(context.Background(), reference)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("Retrieved bytes do not match stored bytes")
	}

	if err := store.Delete(context.Background(), reference); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Retrieve(context.Background(), reference); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(context.Background(), reference); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound on double delete, got %v", err)
	}
}

func TestLocalStore_UniqueReferences(t *testing.T) {
	t.Parallel()

	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}

	first, err := store.Store(context.Background(), []byte("a"), "same.pdf")
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	second, err := store.Store(context.Background(), []byte("b"), "same.pdf")
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if first == second {
		t.Error("Expected distinct references for identical suggested names")
	}
}

func TestLocalStore_RejectsPathTraversal(t *testing.T) {
	t.Parallel()

	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}

	for _, reference := range []string{"", "../escape", "a/b", `a\b`} {
		if _, err := store.Retrieve(context.Background(), reference); err != ErrNotFound {
			t.Errorf("Retrieve(%q): expected ErrNotFound, got %v", reference, err)
		}
		if err := store.Delete(context.Background(), reference); err != ErrNotFound {
			t.Errorf("Delete(%q): expected ErrNotFound, got %v", reference, err)
		}
	}
}

func TestSanitizeExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want string
	}{
		{"notes.txt", ".txt"},
		{"scan.PDF", ".pdf"},
		{"noextension", ""},
		{"weird.t!xt", ""},
		{"archive.tar.gz", ".gz"},
	}

	for _, tt := range tests {
		if got := sanitizeExtension(tt.name); got != tt.want {
			t.Errorf("sanitizeExtension(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
