package storage

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/JamesPrial/scene-namer/pkg/errors"
	"github.com/JamesPrial/scene-namer/pkg/logging"
	"github.com/JamesPrial/scene-namer/pkg/scene"
)

// MemoryBackend is an in-memory scene document
type MemoryBackend struct {
	mu        sync.RWMutex
	entities  map[string]scene.Entity
	order     []string
	selection []string
	logger    *slog.Logger
}

// NewMemoryBackend creates a new memory-based storage backend
func NewMemoryBackend() *MemoryBackend {
	logger := logging.GetGlobalLogger("storage.memory")
	logger.Debug("Creating memory backend")

	return &MemoryBackend{
		entities: make(map[string]scene.Entity),
		logger:   logger,
	}
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), errors.ErrCodeContextCanceled, "operation canceled")
	default:
		return nil
	}
}

// CreateEntities adds entities in the given order. The batch is validated
// before anything is stored.
func (m *MemoryBackend) CreateEntities(ctx context.Context, entities []scene.Entity) error {
	if len(entities) == 0 {
		m.logger.DebugContext(ctx, "No entities to create")
		return nil
	}
	if err := checkContext(ctx); err != nil {
		return err
	}

	timer := logging.StartTimer(ctx, m.logger, "createEntities")
	defer timer.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]struct{}, len(entities))
	for _, entity := range entities {
		if strings.TrimSpace(entity.ID) == "" {
			return errors.New(errors.ErrCodeValidationRequired, "Entity ID cannot be empty or whitespace-only")
		}
		if _, exists := m.entities[entity.ID]; exists {
			m.logger.WarnContext(ctx, "Entity already exists",
				slog.String("entity_id", entity.ID),
			)
			return errors.Newf(errors.ErrCodeEntityAlreadyExists, "Entity with ID '%s' already exists", entity.ID)
		}
		if _, dup := seen[entity.ID]; dup {
			return errors.Newf(errors.ErrCodeEntityAlreadyExists, "Entity ID '%s' appears twice in batch", entity.ID)
		}
		seen[entity.ID] = struct{}{}
	}

	now := time.Now()
	for _, entity := range entities {
		if entity.CreatedAt.IsZero() {
			entity.CreatedAt = now
		}
		if entity.UpdatedAt.IsZero() {
			entity.UpdatedAt = entity.CreatedAt
		}
		m.entities[entity.ID] = entity
		m.order = append(m.order, entity.ID)
	}

	m.logger.InfoContext(ctx, "Created entities in memory",
		slog.Int("count", len(entities)),
		slog.Int("total_entities", len(m.entities)),
	)
	return nil
}

// GetEntity returns the entity with id, or nil if there is none
func (m *MemoryBackend) GetEntity(ctx context.Context, id string) (*scene.Entity, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	entity, exists := m.entities[id]
	if !exists {
		return nil, nil
	}
	return &entity, nil
}

// ListEntities returns every entity in insertion order
func (m *MemoryBackend) ListEntities(ctx context.Context) ([]scene.Entity, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]scene.Entity, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.entities[id])
	}
	return out, nil
}

// GetSelection returns the selected IDs in selection order
func (m *MemoryBackend) GetSelection(ctx context.Context) ([]string, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, len(m.selection))
	copy(out, m.selection)
	return out, nil
}

// SetSelection replaces the selection. Every ID must exist.
func (m *MemoryBackend) SetSelection(ctx context.Context, ids []string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		if _, ok := m.entities[id]; !ok {
			return errors.Newf(errors.ErrCodeEntityNotFound, "cannot select unknown entity '%s'", id)
		}
	}
	m.selection = append([]string(nil), ids...)
	m.logger.DebugContext(ctx, "Selection updated", slog.Int("count", len(ids)))
	return nil
}

// ReadName returns the current name of id
func (m *MemoryBackend) ReadName(ctx context.Context, id string) (string, error) {
	if err := checkContext(ctx); err != nil {
		return "", err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	entity, ok := m.entities[id]
	if !ok {
		return "", errors.Newf(errors.ErrCodeEntityNotFound, "entity '%s' not found", id)
	}
	return entity.Name, nil
}

// WriteName sets the name of id
func (m *MemoryBackend) WriteName(ctx context.Context, id, name string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	if reason := scene.ValidateName(name); reason != "" {
		return errors.ValidationInvalid("name", reason)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entity, ok := m.entities[id]
	if !ok {
		return errors.Newf(errors.ErrCodeEntityNotFound, "entity '%s' not found", id)
	}
	old := entity.Name
	entity.Name = name
	entity.UpdatedAt = time.Now()
	m.entities[id] = entity

	m.logger.DebugContext(ctx, "Entity renamed",
		slog.String("entity_id", id),
		slog.String("old_name", old),
		slog.String("new_name", name),
	)
	return nil
}

// ExistingNames returns every non-empty name in the document
func (m *MemoryBackend) ExistingNames(ctx context.Context) (map[string]struct{}, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make(map[string]struct{}, len(m.entities))
	for _, entity := range m.entities {
		if entity.Name != "" {
			names[entity.Name] = struct{}{}
		}
	}
	return names, nil
}

// GetStatistics returns counts for the document
func (m *MemoryBackend) GetStatistics(ctx context.Context) (map[string]int, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := map[string]int{
		"entities": len(m.entities),
		"selected": len(m.selection),
		"unnamed":  0,
		"hidden":   0,
		"locked":   0,
	}
	for _, entity := range m.entities {
		if !entity.IsNamed() {
			stats["unnamed"]++
		}
		if entity.Hidden {
			stats["hidden"]++
		}
		if entity.Locked {
			stats["locked"]++
		}
	}
	return stats, nil
}

// Close is a no-op for the memory backend
func (m *MemoryBackend) Close() error {
	return nil
}
