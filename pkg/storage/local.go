package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalArchive implements Archive using the local filesystem
type LocalArchive struct {
	basePath string
}

// NewLocalArchive creates a filesystem-backed archive rooted at basePath
func NewLocalArchive(basePath string) (*LocalArchive, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &LocalArchive{basePath: basePath}, nil
}

// Store persists an artifact for a run and returns its metadata
func (a *LocalArchive) Store(ctx context.Context, runID uuid.UUID, name string, r io.Reader) (*ArtifactInfo, error) {
	runDir := filepath.Join(a.basePath, runID.String())
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	path := filepath.Join(runDir, sanitizeName(name))
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write artifact: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat artifact: %w", err)
	}

	return &ArtifactInfo{
		RunID:     runID,
		Name:      name,
		Size:      size,
		Path:      path,
		CreatedAt: info.ModTime(),
	}, nil
}

// Open retrieves a previously stored artifact
func (a *LocalArchive) Open(ctx context.Context, runID uuid.UUID, name string) (io.ReadCloser, error) {
	path := filepath.Join(a.basePath, runID.String(), sanitizeName(name))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	return f, nil
}

// List returns the artifacts stored for a run
func (a *LocalArchive) List(ctx context.Context, runID uuid.UUID) ([]*ArtifactInfo, error) {
	runDir := filepath.Join(a.basePath, runID.String())
	entries, err := os.ReadDir(runDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read run directory: %w", err)
	}

	infos := make([]*ArtifactInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, &ArtifactInfo{
			RunID:     runID,
			Name:      entry.Name(),
			Size:      fi.Size(),
			Path:      filepath.Join(runDir, entry.Name()),
			CreatedAt: fi.ModTime(),
		})
	}
	return infos, nil
}

// sanitizeName strips path separators and other characters that could escape
// the run directory.
func sanitizeName(name string) string {
	name = filepath.Base(name)
	replacer := strings.NewReplacer("\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	return replacer.Replace(name)
}
