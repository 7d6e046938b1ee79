// Package storage provides an archive for generated spreadsheet artifacts.
// Each processing run may persist a copy of its output keyed by run ID, so a
// re-run against the same template never clobbers an earlier result.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// ArtifactInfo contains metadata about an archived artifact
type ArtifactInfo struct {
	RunID     uuid.UUID `json:"run_id"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

// Archive defines the interface for artifact archiving operations
type Archive interface {
	// Store persists an artifact for a run and returns its metadata
	Store(ctx context.Context, runID uuid.UUID, name string, r io.Reader) (*ArtifactInfo, error)

	// Open retrieves a previously stored artifact
	Open(ctx context.Context, runID uuid.UUID, name string) (io.ReadCloser, error)

	// List returns the artifacts stored for a run
	List(ctx context.Context, runID uuid.UUID) ([]*ArtifactInfo, error)
}
