// Package store persists named entity snapshots.
//
// Persistence lives at the ingestion boundary only: the layout core never
// touches a store. Implementations: MemoryStore for tests and ephemeral
// use, MongoStore for the document database the authoring tool writes to.
package store

import (
	"context"

	"github.com/storyloom/storyflow/pkg/entity"
	"github.com/storyloom/storyflow/pkg/errors"
)

// ErrNotFound is returned when a snapshot does not exist.
var ErrNotFound = errors.New(errors.ErrCodeSnapshotNotFound, "snapshot not found")

// Store reads and writes named entity snapshots.
type Store interface {
	// Load returns the snapshot with the given name.
	Load(ctx context.Context, name string) (*entity.Collection, error)

	// Save stores a snapshot under a name, replacing any previous version.
	Save(ctx context.Context, name string, c *entity.Collection) error

	// List returns the stored snapshot names, sorted.
	List(ctx context.Context) ([]string, error)

	// Delete removes a snapshot. Deleting a missing snapshot is not an
	// error.
	Delete(ctx context.Context, name string) error

	// Close releases any underlying connections.
	Close(ctx context.Context) error
}
