package naming

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/JamesPrial/scene-namer/internal/storage"
	"github.com/JamesPrial/scene-namer/pkg/config"
	"github.com/JamesPrial/scene-namer/pkg/errors"
	"github.com/JamesPrial/scene-namer/pkg/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRenamer(t *testing.T, template string, maxSuffix int) *Renamer {
	t.Helper()
	r, err := NewRenamer(Options{Suffix: MustParseSuffix(template), MaxSuffix: maxSuffix})
	require.NoError(t, err)
	return r
}

func universeOf(names ...string) map[string]struct{} {
	u := make(map[string]struct{}, len(names))
	for _, n := range names {
		u[n] = struct{}{}
	}
	return u
}

func TestRenamer_Plan_BoxScenario(t *testing.T) {
	r := newTestRenamer(t, " {n:03d}", 0)
	ents := entities("A", "Box", "B", "Box", "C", "Box", "D", "Bill")
	idx := BuildIndex(ents)

	plan, err := r.Plan(context.Background(), idx, universeOf("Box", "Bill"))
	require.NoError(t, err)

	assert.Equal(t, []Rename{
		{ID: "B", OldName: "Box", NewName: "Box 001"},
		{ID: "C", OldName: "Box", NewName: "Box 002"},
	}, plan.Renames)
	assert.Empty(t, plan.Skipped)
}

func TestRenamer_Plan_SkipsUniverseCollision(t *testing.T) {
	r := newTestRenamer(t, " {n:03d}", 0)
	ws := entities("A", "Box 001", "B", "Box", "C", "Box")

	plan, err := r.Plan(context.Background(), BuildIndex(ws), universeOf("Box", "Box 001"))
	require.NoError(t, err)

	require.Len(t, plan.Renames, 1)
	assert.Equal(t, Rename{ID: "C", OldName: "Box", NewName: "Box 002"}, plan.Renames[0])
}

func TestRenamer_Plan_UniverseOutsideWorkingSet(t *testing.T) {
	r := newTestRenamer(t, "-{n:03d}", 0)
	ws := entities("A", "Box", "B", "Box")

	// "Box-001" belongs to an entity outside the working set
	plan, err := r.Plan(context.Background(), BuildIndex(ws), universeOf("Box", "Box-001", "Box-002"))
	require.NoError(t, err)
	require.Len(t, plan.Renames, 1)
	assert.Equal(t, "Box-003", plan.Renames[0].NewName)
}

func TestRenamer_Plan_CounterRestartsPerEntity(t *testing.T) {
	r := newTestRenamer(t, ".{n}", 0)
	ws := entities("a1", "Box", "a2", "Box", "b1", "Box.1", "b2", "Box.1")

	plan, err := r.Plan(context.Background(), BuildIndex(ws), nil)
	require.NoError(t, err)

	assert.Equal(t, []Rename{
		{ID: "a2", OldName: "Box", NewName: "Box.2"},
		{ID: "b2", OldName: "Box.1", NewName: "Box.1.1"},
	}, plan.Renames)
}

func TestRenamer_Plan_NoDuplicates(t *testing.T) {
	r := newTestRenamer(t, " {n:03d}", 0)
	plan, err := r.Plan(context.Background(), BuildIndex(entities("a", "One", "b", "Two")), nil)
	require.NoError(t, err)
	assert.True(t, plan.Empty())
	assert.Equal(t, 0, plan.Len())
}

func TestRenamer_Plan_SuffixSearchExhausted(t *testing.T) {
	r := newTestRenamer(t, " {n}", 2)
	ws := entities("a", "Box", "b", "Box", "c", "Box", "d", "Box", "e", "Cone", "f", "Cone")

	plan, err := r.Plan(context.Background(), BuildIndex(ws), nil)
	require.NoError(t, err)

	assert.Equal(t, []Rename{
		{ID: "b", OldName: "Box", NewName: "Box 1"},
		{ID: "c", OldName: "Box", NewName: "Box 2"},
		{ID: "f", OldName: "Cone", NewName: "Cone 1"},
	}, plan.Renames, "planning continues past an exhausted entity")

	require.Len(t, plan.Skipped, 1)
	assert.Equal(t, "d", plan.Skipped[0].ID)
	assert.True(t, errors.Is(plan.Skipped[0].Err, errors.ErrCodeSuffixSearchExhausted))
}

func TestRenamer_Plan_KeepNone(t *testing.T) {
	r, err := NewRenamer(Options{Suffix: MustParseSuffix(" {n:03d}"), Keep: KeepNone})
	require.NoError(t, err)

	plan, err := r.Plan(context.Background(), BuildIndex(entities("a", "Box", "b", "Box", "c", "Bill")), nil)
	require.NoError(t, err)
	assert.Equal(t, []Rename{
		{ID: "a", OldName: "Box", NewName: "Box 001"},
		{ID: "b", OldName: "Box", NewName: "Box 002"},
	}, plan.Renames)
}

func TestRenamer_Plan_UnnamedBase(t *testing.T) {
	r, err := NewRenamer(Options{Suffix: MustParseSuffix(" {n:03d}"), UnnamedBase: "Part"})
	require.NoError(t, err)

	plan, err := r.Plan(context.Background(), BuildIndex(entities("a", "", "b", "", "c", "")), universeOf("Part 001"))
	require.NoError(t, err)
	assert.Equal(t, []Rename{
		{ID: "b", OldName: "", NewName: "Part 002"},
		{ID: "c", OldName: "", NewName: "Part 003"},
	}, plan.Renames)
}

func TestRenamer_Plan_Deterministic(t *testing.T) {
	r := newTestRenamer(t, " {n:03d}", 0)
	ws := entities("q", "Box", "c", "Box", "x", "Cone", "a", "Box", "m", "Cone", "k", "Box 001")

	first, err := r.Plan(context.Background(), BuildIndex(ws), universeOf("Box 002"))
	require.NoError(t, err)

	reversed := make([]scene.Entity, len(ws))
	for i := range ws {
		reversed[len(ws)-1-i] = ws[i]
	}
	second, err := r.Plan(context.Background(), BuildIndex(reversed), universeOf("Box 002"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []Rename{
		{ID: "c", OldName: "Box", NewName: "Box 003"},
		{ID: "q", OldName: "Box", NewName: "Box 004"},
		{ID: "x", OldName: "Cone", NewName: "Cone 001"},
	}, first.Renames)
}

func TestRenamer_Plan_ContextCanceled(t *testing.T) {
	r := newTestRenamer(t, " {n:03d}", 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Plan(ctx, BuildIndex(entities("a", "Box", "b", "Box")), nil)
	assert.True(t, errors.Is(err, errors.ErrCodeContextCanceled))
}

func TestNewRenamer_Validation(t *testing.T) {
	_, err := NewRenamer(Options{})
	assert.True(t, errors.Is(err, errors.ErrCodeValidationRequired))

	_, err = NewRenamer(Options{Suffix: MustParseSuffix(".{n}"), Keep: "last"})
	assert.True(t, errors.Is(err, errors.ErrCodeValidationInvalid))

	r, err := NewRenamer(Options{Suffix: MustParseSuffix(".{n}")})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultMaxSuffix, r.opts.MaxSuffix)
	assert.Equal(t, "Object", r.opts.UnnamedBase)
	assert.Equal(t, KeepFirst, r.opts.Keep)
}

func TestOptionsFromConfig(t *testing.T) {
	rs := config.Default().Rename
	rs.Suffix = "dash"
	rs.Keep = "none"

	opts, err := OptionsFromConfig(rs)
	require.NoError(t, err)
	assert.Equal(t, "-{n:03d}", opts.Suffix.String())
	assert.Equal(t, KeepNone, opts.Keep)
	assert.Equal(t, config.DefaultMaxSuffix, opts.MaxSuffix)

	rs.Suffix = "plain"
	_, err = OptionsFromConfig(rs)
	assert.Error(t, err)
}

func TestRenamer_Apply_Real(t *testing.T) {
	ctx := context.Background()
	backend := newMemorySource(t, entities("A", "Box", "B", "Box", "C", "Box", "D", "Bill"))
	view := NewView(backend)
	r := newTestRenamer(t, " {n:03d}", 0)

	ws, err := view.List(ctx, ModeAllInScope, DefaultFilters())
	require.NoError(t, err)
	universe, err := backend.ExistingNames(ctx)
	require.NoError(t, err)
	plan, err := r.Plan(ctx, BuildIndex(ws.Entities), universe)
	require.NoError(t, err)

	result, err := r.Apply(ctx, ws, plan, backend, false)
	require.NoError(t, err)
	assert.False(t, result.DryRun)
	assert.Equal(t, 2, result.Renamed)
	assert.Empty(t, result.Failures)
	assert.Equal(t, 0, result.Final.DuplicateGroupCount)
	assert.Equal(t, 4, result.Final.DistinctNames)

	for id, want := range map[string]string{"A": "Box", "B": "Box 001", "C": "Box 002", "D": "Bill"} {
		got, err := backend.ReadName(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// Re-running on the now-unique set changes nothing
	ws, err = view.List(ctx, ModeAllInScope, DefaultFilters())
	require.NoError(t, err)
	universe, err = backend.ExistingNames(ctx)
	require.NoError(t, err)
	again, err := r.Plan(ctx, BuildIndex(ws.Entities), universe)
	require.NoError(t, err)
	assert.True(t, again.Empty())

	result, err = r.Apply(ctx, ws, again, backend, false)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Renamed)
}

func TestRenamer_Apply_DryRun(t *testing.T) {
	ctx := context.Background()
	backend := newMemorySource(t, entities("A", "Box", "B", "Box", "C", "Box"))
	r := newTestRenamer(t, " {n:03d}", 0)

	ws, err := NewView(backend).List(ctx, ModeAllInScope, DefaultFilters())
	require.NoError(t, err)
	plan, err := r.Plan(ctx, BuildIndex(ws.Entities), universeOf("Box"))
	require.NoError(t, err)

	result, err := r.Apply(ctx, ws, plan, backend, true)
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, 0, result.Renamed)
	assert.Equal(t, 0, result.Final.DuplicateGroupCount, "projected names are unique")

	for _, id := range []string{"A", "B", "C"} {
		got, err := backend.ReadName(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Box", got)
	}
}

func TestRenamer_Apply_WriteRejected(t *testing.T) {
	ctx := context.Background()
	ws := &WorkingSet{Entities: entities("A", "Box", "B", "Box", "C", "Box")}
	r := newTestRenamer(t, " {n:03d}", 0)

	plan, err := r.Plan(ctx, BuildIndex(ws.Entities), nil)
	require.NoError(t, err)

	writer := new(storage.MockBackend)
	writer.On("WriteName", mock.Anything, "B", "Box 001").
		Return(errors.New(errors.ErrCodeEntityNotFound, "gone"))
	writer.On("WriteName", mock.Anything, "C", "Box 002").Return(nil)

	result, err := r.Apply(ctx, ws, plan, writer, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Renamed)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "B", result.Failures[0].ID)
	assert.True(t, errors.Is(result.Failures[0].Err, errors.ErrCodeWriteRejected))
	assert.Equal(t, 1, result.Final.DuplicateGroupCount, "the rejected entity still carries its old name")
	writer.AssertExpectations(t)
}

func TestRenamer_Apply_CanceledBeforeFirstWrite(t *testing.T) {
	ws := &WorkingSet{Entities: entities("A", "Box", "B", "Box")}
	r := newTestRenamer(t, " {n:03d}", 0)
	plan, err := r.Plan(context.Background(), BuildIndex(ws.Entities), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	writer := new(storage.MockBackend)

	result, err := r.Apply(ctx, ws, plan, writer, false)
	assert.True(t, errors.Is(err, errors.ErrCodeContextCanceled))
	require.NotNil(t, result)
	assert.Equal(t, 0, result.Renamed)
	writer.AssertNotCalled(t, "WriteName", mock.Anything, mock.Anything, mock.Anything)
}

// cancelingWriter cancels the caller's context on its first write
type cancelingWriter struct {
	next   NameWriter
	cancel context.CancelFunc
	writes []string
}

func (w *cancelingWriter) WriteName(ctx context.Context, id, name string) error {
	w.writes = append(w.writes, id)
	w.cancel()
	return w.next.WriteName(ctx, id, name)
}

func TestRenamer_Apply_CancelMidPlanStillWritesEverything(t *testing.T) {
	ents := entities("A", "Box", "B", "Box", "C", "Box", "D", "Box")
	backend := newMemorySource(t, ents)
	ws := &WorkingSet{Entities: ents}
	r := newTestRenamer(t, " {n:03d}", 0)
	plan, err := r.Plan(context.Background(), BuildIndex(ents), universeOf("Box"))
	require.NoError(t, err)
	require.Equal(t, 3, plan.Len())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	writer := &cancelingWriter{next: backend, cancel: cancel}

	result, err := r.Apply(ctx, ws, plan, writer, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C", "D"}, writer.writes)
	assert.Equal(t, 3, result.Renamed)
	assert.Empty(t, result.Failures)
	assert.Equal(t, 0, result.Final.DuplicateGroupCount)

	name, err := backend.ReadName(context.Background(), "D")
	require.NoError(t, err)
	assert.Equal(t, "Box 003", name)
}

func TestRenamer_Plan_SkipsOverlongCandidates(t *testing.T) {
	r := newTestRenamer(t, " {n:03d}", 0)
	long := strings.Repeat("x", scene.MaxNameLength-3)
	fits := strings.Repeat("y", scene.MaxNameLength-4)
	ws := entities("a", long, "b", long, "c", fits, "d", fits)

	plan, err := r.Plan(context.Background(), BuildIndex(ws), nil)
	require.NoError(t, err)

	require.Len(t, plan.Renames, 1)
	assert.Equal(t, "d", plan.Renames[0].ID)
	assert.Len(t, plan.Renames[0].NewName, scene.MaxNameLength)

	require.Len(t, plan.Skipped, 1)
	assert.Equal(t, "b", plan.Skipped[0].ID)
	assert.True(t, errors.Is(plan.Skipped[0].Err, errors.ErrCodeSuffixSearchExhausted))
	assert.Contains(t, errors.GetMessage(plan.Skipped[0].Err), "characters")
}

func TestRenamer_Properties(t *testing.T) {
	pool := []string{"Box", "Box 001", "Box 002", "Bill", "Cone", "Cone 001", "", "Sphere"}
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 20; round++ {
		t.Run(fmt.Sprintf("round-%d", round), func(t *testing.T) {
			ctx := context.Background()
			var ents []scene.Entity
			for i := 0; i < 60; i++ {
				ents = append(ents, scene.Entity{
					ID:    fmt.Sprintf("id-%03d", rng.Intn(1000)*100+i),
					Name:  pool[rng.Intn(len(pool))],
					Kind:  scene.KindGeometry,
					Space: scene.SpaceModel,
				})
			}
			// A few entities outside the working set hold candidate names
			outside := []scene.Entity{
				{ID: "out-1", Name: "Box 003", Space: scene.SpaceLayout},
				{ID: "out-2", Name: "Object 001", Space: scene.SpaceLayout},
			}
			backend := newMemorySource(t, append(ents, outside...))
			filters := DefaultFilters()
			filters.IncludeUnnamed = true

			ws, err := NewView(backend).List(ctx, ModeAllInScope, filters)
			require.NoError(t, err)
			universe, err := backend.ExistingNames(ctx)
			require.NoError(t, err)

			r := newTestRenamer(t, " {n:03d}", 0)
			plan, err := r.Plan(ctx, BuildIndex(ws.Entities), universe)
			require.NoError(t, err)
			again, err := r.Plan(ctx, BuildIndex(ws.Entities), universe)
			require.NoError(t, err)
			assert.Equal(t, plan, again, "determinism")

			seen := make(map[string]struct{})
			for _, rn := range plan.Renames {
				_, dup := seen[rn.NewName]
				assert.False(t, dup, "new name %q planned twice", rn.NewName)
				seen[rn.NewName] = struct{}{}
				_, existed := universe[rn.NewName]
				assert.False(t, existed, "new name %q collides with an existing name", rn.NewName)
			}

			result, err := r.Apply(ctx, ws, plan, backend, false)
			require.NoError(t, err)
			assert.Equal(t, plan.Len(), result.Renamed)
			assert.Equal(t, 0, result.Final.DuplicateGroupCount)

			after, err := NewView(backend).List(ctx, ModeAllInScope, filters)
			require.NoError(t, err)
			assert.Equal(t, 0, BuildIndex(after.Entities).DuplicateGroupCount)
		})
	}
}
