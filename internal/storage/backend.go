package storage

import (
	"context"

	"github.com/JamesPrial/scene-namer/pkg/scene"
)

// Backend is the host document: it owns entity lifecycle and exposes the
// read and write operations the naming pipeline needs.
type Backend interface {
	CreateEntities(ctx context.Context, entities []scene.Entity) error
	GetEntity(ctx context.Context, id string) (*scene.Entity, error)

	// ListEntities enumerates every entity in document order, unfiltered
	ListEntities(ctx context.Context) ([]scene.Entity, error)

	GetSelection(ctx context.Context) ([]string, error)
	SetSelection(ctx context.Context, ids []string) error

	ReadName(ctx context.Context, id string) (string, error)
	WriteName(ctx context.Context, id, name string) error

	// ExistingNames returns every non-empty name in the document regardless of filters
	ExistingNames(ctx context.Context) (map[string]struct{}, error)

	GetStatistics(ctx context.Context) (map[string]int, error)
	Close() error
}
