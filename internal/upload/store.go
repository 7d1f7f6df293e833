// Package upload implements document storage for ID proofs, photos and
// signatures.  Workflows choose deterministic destination paths keyed by
// the owning entity and call Delete as compensation when a later step of a
// multi-step create fails.
package upload

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store is the file storage collaborator consumed by handlers.
type Store interface {
	// Save writes data under the store root at the given relative path and
	// returns the stored relative path.
	Save(relPath string, data []byte) (string, error)
	// Delete removes a stored file.  Deleting an absent file is not an error.
	Delete(relPath string) error
	// DeleteAll removes every file stored under an entity's directory.
	DeleteAll(entityDir string) error
	// Exists reports whether a stored file is present.
	Exists(relPath string) bool
}

// DiskStore stores documents under a root directory on local disk.
type DiskStore struct {
	Root string
}

func NewDiskStore(root string) *DiskStore { return &DiskStore{Root: root} }

// DocumentPath builds the deterministic destination for an entity's
// document: <entityRef>/<kind>-<random>.<ext>.  The random component keeps
// re-uploads from clobbering earlier files while the directory stays keyed
// by the entity.
func DocumentPath(entityRef, kind, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".bin"
	}
	return filepath.Join(sanitize(entityRef), kind+"-"+uuid.NewString()+ext)
}

func (s *DiskStore) Save(relPath string, data []byte) (string, error) {
	full := filepath.Join(s.Root, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", err
	}
	return relPath, nil
}

func (s *DiskStore) Delete(relPath string) error {
	err := os.Remove(filepath.Join(s.Root, relPath))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *DiskStore) DeleteAll(entityDir string) error {
	return os.RemoveAll(filepath.Join(s.Root, sanitize(entityDir)))
}

func (s *DiskStore) Exists(relPath string) bool {
	_, err := os.Stat(filepath.Join(s.Root, relPath))
	return err == nil
}

// sanitize keeps entity references from escaping the store root.
func sanitize(ref string) string {
	ref = strings.ReplaceAll(ref, "..", "")
	ref = strings.ReplaceAll(ref, "/", "_")
	ref = strings.ReplaceAll(ref, "\\", "_")
	return ref
}
