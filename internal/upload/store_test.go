package upload

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	s := NewDiskStore(t.TempDir())

	rel := DocumentPath("REG2503000000000042", "id-proof", "aadhaar.PDF")
	if !strings.HasPrefix(rel, "REG2503000000000042"+string(filepath.Separator)) {
		t.Fatalf("path not keyed by entity: %q", rel)
	}
	if !strings.HasSuffix(rel, ".pdf") {
		t.Fatalf("extension not normalized: %q", rel)
	}

	stored, err := s.Save(rel, []byte("doc"))
	if err != nil {
		t.Fatal(err)
	}
	if !s.Exists(stored) {
		t.Fatal("saved file not found")
	}

	if err := s.Delete(stored); err != nil {
		t.Fatal(err)
	}
	if s.Exists(stored) {
		t.Fatal("deleted file still present")
	}
	// Compensation paths may delete twice; second delete must be a no-op.
	if err := s.Delete(stored); err != nil {
		t.Fatalf("double delete: %v", err)
	}
}

func TestDiskStoreDeleteAll(t *testing.T) {
	s := NewDiskStore(t.TempDir())
	a, _ := s.Save(DocumentPath("CUST1", "photo", "a.jpg"), []byte("x"))
	b, _ := s.Save(DocumentPath("CUST1", "id-proof", "b.png"), []byte("y"))
	if err := s.DeleteAll("CUST1"); err != nil {
		t.Fatal(err)
	}
	if s.Exists(a) || s.Exists(b) {
		t.Fatal("entity directory not fully removed")
	}
}

func TestDocumentPathTraversal(t *testing.T) {
	rel := DocumentPath("../../etc", "photo", "x.jpg")
	if strings.Contains(rel, "..") {
		t.Fatalf("traversal not sanitized: %q", rel)
	}
}
