package toolkit

import (
	"context"
	"log/slog"
	"strings"

	"github.com/JamesPrial/scene-namer/internal/naming"
	"github.com/JamesPrial/scene-namer/internal/report"
	"github.com/JamesPrial/scene-namer/internal/storage"
	"github.com/JamesPrial/scene-namer/pkg/config"
	"github.com/JamesPrial/scene-namer/pkg/errors"
	"github.com/JamesPrial/scene-namer/pkg/logging"
)

// Action is one toolbox command
type Action string

const (
	ActionSelectedObjects Action = "SelectedObjects"
	ActionNameStats       Action = "NameStats"
	ActionListNames       Action = "ListNames"
	ActionRenameDry       Action = "RenameDry"
	ActionRenameApply     Action = "RenameApply"
	ActionExit            Action = "Exit"
)

// DefaultAction runs when the user picks nothing
const DefaultAction = ActionListNames

// ActionInfo describes an action for menus and help text
type ActionInfo struct {
	Name        Action
	Description string
	Aliases     []string
}

var actions = []ActionInfo{
	{Name: ActionSelectedObjects, Description: "Toggle selected-only mode", Aliases: []string{"ToggleSelectedOnly"}},
	{Name: ActionNameStats, Description: "Show name statistics and duplicate frequencies"},
	{Name: ActionListNames, Description: "List object names, marking duplicates"},
	{Name: ActionRenameDry, Description: "Preview the renames that would make names unique"},
	{Name: ActionRenameApply, Description: "Rename duplicates so every name is unique"},
	{Name: ActionExit, Description: "Leave the toolbox"},
}

// ListActions returns the available actions in menu order
func ListActions() []ActionInfo {
	out := make([]ActionInfo, len(actions))
	copy(out, actions)
	return out
}

// ParseAction resolves a case-insensitive action name or alias
func ParseAction(s string) (Action, error) {
	s = strings.TrimSpace(s)
	for _, a := range actions {
		if strings.EqualFold(s, string(a.Name)) {
			return a.Name, nil
		}
		for _, alias := range a.Aliases {
			if strings.EqualFold(s, alias) {
				return a.Name, nil
			}
		}
	}
	return "", errors.Newf(errors.ErrCodeUnknownAction, "unknown action: %s", s)
}

// Manager runs toolbox actions against a backend and renders their output
type Manager struct {
	backend      storage.Backend
	view         *naming.View
	renamer      *naming.Renamer
	filters      naming.Filters
	selectedOnly bool
	reporter     *report.Reporter
	afterApply   func(ctx context.Context) error
	logger       *slog.Logger
	errLogger    *errors.Logger
}

// Option configures a Manager
type Option func(*Manager)

// WithAfterApply registers a hook run after a real rename wrote at least one name
func WithAfterApply(fn func(ctx context.Context) error) Option {
	return func(m *Manager) { m.afterApply = fn }
}

// NewManager creates a Manager from rename settings
func NewManager(backend storage.Backend, settings config.RenameSettings, reporter *report.Reporter, opts ...Option) (*Manager, error) {
	renamerOpts, err := naming.OptionsFromConfig(settings)
	if err != nil {
		return nil, err
	}
	renamer, err := naming.NewRenamer(renamerOpts)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		backend:      backend,
		view:         naming.NewView(backend),
		renamer:      renamer,
		filters:      naming.FiltersFromConfig(settings.Filters),
		selectedOnly: settings.SelectedOnly,
		reporter:     reporter,
		logger:       logging.GetGlobalLogger("toolkit"),
		errLogger:    errors.NewLogger("toolkit"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// SelectedOnly reports whether actions work on the selection only
func (m *Manager) SelectedOnly() bool {
	return m.selectedOnly
}

// SetSelectedOnly switches between the selection and every in-scope entity
func (m *Manager) SetSelectedOnly(on bool) {
	m.selectedOnly = on
}

// Mode returns the working set mode implied by the selected-only toggle
func (m *Manager) Mode() naming.Mode {
	if m.selectedOnly {
		return naming.ModeSelectedOnly
	}
	return naming.ModeAllInScope
}

// Run executes one action and renders its output. Failures and panics are
// rendered through the reporter and returned; they never escape as panics.
func (m *Manager) Run(ctx context.Context, action Action) (err error) {
	ctx = logging.NewOperationContext(ctx, string(action))
	defer func() {
		if recovered := recover(); recovered != nil {
			err = m.errLogger.LogPanic(ctx, recovered, string(action))
			m.reporter.Error(err)
		}
	}()

	switch action {
	case ActionSelectedObjects:
		m.selectedOnly = !m.selectedOnly
		m.reporter.Line("Selected only mode is now " + onOff(m.selectedOnly))
		m.reporter.Line("")
		return nil
	case ActionNameStats:
		err = m.nameStats(ctx)
		return m.finish(ctx, err, action, "Name Stats Complete.")
	case ActionListNames:
		err = m.listNames(ctx)
		return m.finish(ctx, err, action, "List Names Complete.")
	case ActionRenameDry:
		_, _, err = m.Rename(ctx, true)
		return m.finish(ctx, err, action, "Dry run complete.")
	case ActionRenameApply:
		_, _, err = m.Rename(ctx, false)
		return m.finish(ctx, err, action, "Rename operation complete.")
	case ActionExit:
		m.reporter.Line("Exiting toolbox.")
		return nil
	default:
		err = errors.Newf(errors.ErrCodeUnknownAction, "unknown action: %s", action)
		return m.finish(ctx, err, action, "")
	}
}

func (m *Manager) finish(ctx context.Context, err error, action Action, done string) error {
	if err != nil {
		logged := m.errLogger.LogError(ctx, err, string(action))
		m.reporter.Error(logged)
		return logged
	}
	m.reporter.Done(done)
	return nil
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

// WorkingSet snapshots the entities the next action would operate on
func (m *Manager) WorkingSet(ctx context.Context) (*naming.WorkingSet, error) {
	return m.view.List(ctx, m.Mode(), m.filters)
}

// Stats classifies the current working set
func (m *Manager) Stats(ctx context.Context) (*naming.NameIndex, error) {
	ws, err := m.WorkingSet(ctx)
	if err != nil {
		return nil, err
	}
	return naming.BuildIndex(ws.Entities), nil
}

func (m *Manager) nameStats(ctx context.Context) error {
	idx, err := m.Stats(ctx)
	if err != nil {
		return err
	}
	if idx.TotalEntities == 0 {
		m.reporter.NoObjects()
		return nil
	}
	m.reporter.Stats(idx)
	return nil
}

func (m *Manager) listNames(ctx context.Context) error {
	ws, err := m.WorkingSet(ctx)
	if err != nil {
		return err
	}
	if ws.Len() == 0 {
		m.reporter.NoObjects()
		return nil
	}
	m.reporter.List(ws)
	return nil
}

// Rename plans unique names for the current working set and applies them,
// or only reports them when dryRun is set. A nil plan means there was
// nothing to rename.
func (m *Manager) Rename(ctx context.Context, dryRun bool) (*naming.Plan, *naming.Result, error) {
	ws, err := m.WorkingSet(ctx)
	if err != nil {
		return nil, nil, err
	}
	if ws.Len() == 0 {
		m.reporter.NoObjects()
		return nil, nil, nil
	}

	idx := naming.BuildIndex(ws.Entities)
	if idx.Unique() {
		m.reporter.AllUnique()
		return nil, nil, nil
	}

	universe, err := m.backend.ExistingNames(ctx)
	if err != nil {
		return nil, nil, err
	}
	plan, err := m.renamer.Plan(ctx, idx, universe)
	if err != nil {
		return nil, nil, err
	}

	result, err := m.renamer.Apply(ctx, ws, plan, m.backend, dryRun)
	if result != nil {
		m.reporter.Outcome(plan, result)
	}
	if err != nil {
		return plan, result, err
	}

	if !dryRun && result.Renamed > 0 && m.afterApply != nil {
		if err := m.afterApply(context.WithoutCancel(ctx)); err != nil {
			return plan, result, err
		}
	}

	m.logger.InfoContext(ctx, "Rename finished",
		slog.Bool("dry_run", dryRun),
		slog.String("mode", m.Mode().String()),
		slog.Int("planned", plan.Len()),
		slog.Int("renamed", result.Renamed),
		slog.Int("failed", len(result.Failures)),
		slog.Int("skipped", len(plan.Skipped)),
	)
	return plan, result, nil
}
