package storage

import (
	"context"
	"log/slog"

	"github.com/JamesPrial/scene-namer/pkg/config"
	"github.com/JamesPrial/scene-namer/pkg/errors"
	"github.com/JamesPrial/scene-namer/pkg/logging"
)

// NewBackend creates a new storage backend based on the configuration
func NewBackend(cfg *config.Settings) (Backend, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrCodeConfiguration, "configuration cannot be nil")
	}
	switch cfg.StorageType {
	case "sqlite":
		if cfg.StoragePath == "" {
			return nil, errors.New(errors.ErrCodeConfiguration, "storage path is required for SQLite backend")
		}
		backend, err := NewSqliteBackend(cfg.StoragePath, cfg.Sqlite.WALMode)
		if err != nil {
			return nil, err
		}
		return backend, nil
	case "memory", "":
		return NewMemoryBackend(), nil
	default:
		return nil, errors.Newf(errors.ErrCodeConfiguration, "unsupported storage type: %s", cfg.StorageType)
	}
}

// Open creates the configured backend and, when a scene file is configured,
// seeds it with the scene's entities and selection. A backend that already
// holds entities (a reopened SQLite document) is not seeded again.
func Open(ctx context.Context, cfg *config.Settings) (Backend, error) {
	backend, err := NewBackend(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.ScenePath == "" {
		return backend, nil
	}

	stats, err := backend.GetStatistics(ctx)
	if err != nil {
		backend.Close()
		return nil, err
	}
	if stats["entities"] > 0 {
		logging.GetGlobalLogger("storage").InfoContext(ctx, "Backend already populated, scene file not loaded",
			slog.String("scene", cfg.ScenePath),
			slog.Int("entities", stats["entities"]),
		)
		return backend, nil
	}

	doc, err := LoadScene(cfg.ScenePath)
	if err != nil {
		backend.Close()
		return nil, err
	}
	if err := Import(ctx, backend, doc); err != nil {
		backend.Close()
		return nil, err
	}
	return backend, nil
}

// Import writes the entities and selection of doc into backend
func Import(ctx context.Context, backend Backend, doc *SceneDocument) error {
	if err := backend.CreateEntities(ctx, doc.Entities); err != nil {
		return err
	}
	if len(doc.Selection) == 0 {
		return nil
	}
	return backend.SetSelection(ctx, doc.Selection)
}

// Export snapshots backend into a scene document
func Export(ctx context.Context, backend Backend) (*SceneDocument, error) {
	entities, err := backend.ListEntities(ctx)
	if err != nil {
		return nil, err
	}
	selection, err := backend.GetSelection(ctx)
	if err != nil {
		return nil, err
	}
	return &SceneDocument{Entities: entities, Selection: selection}, nil
}
