package services

import (
	"fmt"
	"log"
	"os"
	"sync"
)

// TempArtifacts owns the working directory of one in-flight request and
// every file tracked inside it. Release deletes everything exactly once no
// matter how many times it runs or which pipeline path called it; per-file
// failures are logged and never escalated.
type TempArtifacts struct {
	dir   string
	paths []string
	once  sync.Once
}

// NewTempArtifacts creates a private working directory under parentDir.
func NewTempArtifacts(parentDir string) (*TempArtifacts, error) {
	dir, err := os.MkdirTemp(parentDir, "grabber-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	return &TempArtifacts{dir: dir}, nil
}

func (t *TempArtifacts) Dir() string {
	return t.dir
}

// Track registers a path for deletion on release. Paths inside the working
// directory are covered either way; tracking keeps the deletion order
// explicit and covers files written elsewhere.
func (t *TempArtifacts) Track(path string) {
	t.paths = append(t.paths, path)
}

// Release deletes all tracked paths and the working directory. Safe to call
// more than once; only the first call does the work.
func (t *TempArtifacts) Release() {
	t.once.Do(func() {
		for _, path := range t.paths {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				log.Printf("Failed to remove temp file %s: %v", path, err)
			}
		}
		if err := os.RemoveAll(t.dir); err != nil {
			log.Printf("Failed to remove temp directory %s: %v", t.dir, err)
		}
	})
}
