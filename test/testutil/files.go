package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// MediaTree is a Dendrite media directory in a temp dir.
type MediaTree struct {
	Base string
}

func NewMediaTree(t *testing.T) *MediaTree {
	t.Helper()
	return &MediaTree{Base: t.TempDir()}
}

// Dir returns the hash directory of base64hash.
func (m *MediaTree) Dir(base64hash string) string {
	return filepath.Join(m.Base, base64hash[0:1], base64hash[1:2], base64hash[2:])
}

// Put writes name (file or a thumbnail name) into the hash directory.
func (m *MediaTree) Put(t *testing.T, base64hash, name string) string {
	t.Helper()
	path := filepath.Join(m.Dir(base64hash), name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(name+" of "+base64hash), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func (m *MediaTree) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
