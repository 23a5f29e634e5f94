package naming

import (
	"context"
	"log/slog"

	"github.com/JamesPrial/scene-namer/pkg/config"
	"github.com/JamesPrial/scene-namer/pkg/errors"
	"github.com/JamesPrial/scene-namer/pkg/logging"
	"github.com/JamesPrial/scene-namer/pkg/scene"
)

// Mode selects which entities an action works on
type Mode int

const (
	// ModeAllInScope is every model-space entity that passes the filters
	ModeAllInScope Mode = iota
	// ModeSelectedOnly is exactly the host's current selection
	ModeSelectedOnly
)

func (m Mode) String() string {
	switch m {
	case ModeAllInScope:
		return "all"
	case ModeSelectedOnly:
		return "selected"
	default:
		return "unknown"
	}
}

// Filters are independent inclusion switches applied when building a working set
type Filters struct {
	IncludeHidden  bool
	IncludeLocked  bool
	IncludeLights  bool
	IncludeGrips   bool
	IncludeUnnamed bool
}

// DefaultFilters includes hidden and locked entities and excludes lights,
// grips and unnamed entities.
func DefaultFilters() Filters {
	return Filters{IncludeHidden: true, IncludeLocked: true}
}

// FiltersFromConfig converts configured filter switches
func FiltersFromConfig(fs config.FilterSettings) Filters {
	return Filters{
		IncludeHidden:  fs.IncludeHidden,
		IncludeLocked:  fs.IncludeLocked,
		IncludeLights:  fs.IncludeLights,
		IncludeGrips:   fs.IncludeGrips,
		IncludeUnnamed: fs.IncludeUnnamed,
	}
}

// Source is the read side of the host document
type Source interface {
	ListEntities(ctx context.Context) ([]scene.Entity, error)
	GetSelection(ctx context.Context) ([]string, error)
}

// WorkingSet is the ordered snapshot of entities one action operates on.
// It never holds the same ID twice.
type WorkingSet struct {
	Mode     Mode
	Entities []scene.Entity
}

// Len returns the number of entities in the set
func (ws *WorkingSet) Len() int {
	return len(ws.Entities)
}

// Names maps each entity ID to its current name
func (ws *WorkingSet) Names() map[string]string {
	names := make(map[string]string, len(ws.Entities))
	for _, e := range ws.Entities {
		names[e.ID] = e.Name
	}
	return names
}

// View builds working sets from a Source
type View struct {
	source Source
	logger *slog.Logger
}

// NewView creates a view over source
func NewView(source Source) *View {
	return &View{
		source: source,
		logger: logging.GetGlobalLogger("naming.view"),
	}
}

// List snapshots the working set for mode. In ModeSelectedOnly an empty
// selection is an EMPTY_SELECTION error; it never falls back to all entities.
func (v *View) List(ctx context.Context, mode Mode, filters Filters) (*WorkingSet, error) {
	entities, err := v.source.ListEntities(ctx)
	if err != nil {
		return nil, err
	}

	var picked []scene.Entity
	switch mode {
	case ModeSelectedOnly:
		picked, err = v.selected(ctx, entities)
		if err != nil {
			return nil, err
		}
	case ModeAllInScope:
		picked = inScope(entities, filters)
	default:
		return nil, errors.Newf(errors.ErrCodeValidationInvalid, "unknown working set mode %d", mode)
	}

	ws := &WorkingSet{Mode: mode, Entities: make([]scene.Entity, 0, len(picked))}
	seen := make(map[string]struct{}, len(picked))
	for _, e := range picked {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		if !filters.IncludeUnnamed && !e.IsNamed() {
			continue
		}
		ws.Entities = append(ws.Entities, e)
	}

	v.logger.DebugContext(ctx, "Working set built",
		slog.String("mode", mode.String()),
		slog.Int("candidates", len(picked)),
		slog.Int("size", ws.Len()),
	)
	return ws, nil
}

func (v *View) selected(ctx context.Context, entities []scene.Entity) ([]scene.Entity, error) {
	ids, err := v.source.GetSelection(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, errors.New(errors.ErrCodeEmptySelection, "selected-only mode is on but no objects are selected")
	}

	byID := make(map[string]scene.Entity, len(entities))
	for _, e := range entities {
		byID[e.ID] = e
	}

	out := make([]scene.Entity, 0, len(ids))
	for _, id := range ids {
		e, ok := byID[id]
		if !ok {
			v.logger.DebugContext(ctx, "Selected entity no longer exists", slog.String("entity_id", id))
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func inScope(entities []scene.Entity, f Filters) []scene.Entity {
	out := make([]scene.Entity, 0, len(entities))
	for _, e := range entities {
		switch {
		case !e.InModelSpace():
		case e.Kind == scene.KindLight && !f.IncludeLights:
		case e.Kind == scene.KindGrip && !f.IncludeGrips:
		case e.Hidden && !f.IncludeHidden:
		case e.Locked && !f.IncludeLocked:
		default:
			out = append(out, e)
		}
	}
	return out
}
