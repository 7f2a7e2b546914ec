package localfs

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestSaveAndOpenRoundTrip(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := storage.Save(context.Background(), "doc-1_facts.txt", strings.NewReader("raw bytes")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	rc, err := storage.Open(context.Background(), "doc-1_facts.txt")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "raw bytes" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestOpenMissingKey(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := storage.Open(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error for missing key")
	}
}
