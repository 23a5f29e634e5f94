package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/JamesPrial/scene-namer/internal/naming"
	"github.com/JamesPrial/scene-namer/pkg/errors"
	"github.com/JamesPrial/scene-namer/pkg/scene"
	"github.com/stretchr/testify/assert"
)

func boxScene() []scene.Entity {
	return []scene.Entity{
		{ID: "A", Name: "Box", Description: "first"},
		{ID: "B", Name: "Box"},
		{ID: "C", Name: "Box"},
		{ID: "D", Name: "Bill"},
	}
}

func TestReporter_Stats(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Stats(naming.BuildIndex(boxScene()))

	want := strings.Join([]string{
		"----- Object Name Statistics -----",
		"Total objects: 4",
		"Distinct names: 2",
		"Duplicate name groups: 1",
		"Total duplicate instances: 2",
		"",
		"Duplicate name frequencies:",
		"  Name: Box  Count: 3",
		"",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestReporter_Stats_NoDuplicates(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Stats(naming.BuildIndex(boxScene()[2:]))

	assert.Contains(t, buf.String(), "Duplicate name groups: 0")
	assert.Contains(t, buf.String(), "No duplicate names detected.")
	assert.NotContains(t, buf.String(), "frequencies")
}

func TestReporter_List(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).List(&naming.WorkingSet{Entities: boxScene()})

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "----- Object List -----\nListing 4 objects\n\n"))
	assert.Equal(t, 2, strings.Count(out, "** DUPLICATE **"))
	assert.Contains(t, out, "Object Name: Box\nObject Description: first\n")
	assert.Contains(t, out, "** DUPLICATE **\nObject Name: Box\n")
}

func TestReporter_List_CountsUnnamed(t *testing.T) {
	var buf bytes.Buffer
	ents := append(boxScene(), scene.Entity{ID: "E", Name: ""})
	New(&buf).List(&naming.WorkingSet{Entities: ents})

	assert.Contains(t, buf.String(), "Listing 5 objects\n")
	assert.NotContains(t, buf.String(), "named")
}

func TestReporter_List_WithoutDescriptions(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, WithDescriptions(false)).List(&naming.WorkingSet{Entities: boxScene()})
	assert.NotContains(t, buf.String(), "Object Description")
}

func TestReporter_Outcome_DryRun(t *testing.T) {
	plan := &naming.Plan{Renames: []naming.Rename{
		{ID: "B", OldName: "Box", NewName: "Box 001"},
		{ID: "C", OldName: "Box", NewName: "Box 002"},
	}}
	var buf bytes.Buffer
	New(&buf).Outcome(plan, &naming.Result{DryRun: true, Final: naming.BuildIndex(nil)})

	out := buf.String()
	assert.Contains(t, out, "[DRY] B: 'Box' -> 'Box 001'\n")
	assert.Contains(t, out, "[DRY] C: 'Box' -> 'Box 002'\n")
	assert.Contains(t, out, "[DRY] Done. Renamed 0 object(s), 2 planned.\n")
	assert.NotContains(t, out, "Renamed: ")
}

func TestReporter_Outcome_Real(t *testing.T) {
	plan := &naming.Plan{
		Renames: []naming.Rename{
			{ID: "B", OldName: "Box", NewName: "Box 001"},
			{ID: "C", OldName: "Box", NewName: "Box 002"},
		},
		Skipped: []naming.Skip{
			{ID: "E", Name: "Cone", Err: errors.New(errors.ErrCodeSuffixSearchExhausted, "no free name for 'Cone'")},
		},
	}
	final := naming.BuildIndex([]scene.Entity{{ID: "A", Name: "Box"}, {ID: "B", Name: "Box"}})
	result := &naming.Result{
		Renamed: 1,
		Failures: []naming.Failure{{
			Rename: plan.Renames[0],
			Err:    errors.Wrap(errors.New(errors.ErrCodeEntityNotFound, "entity 'B' not found"), errors.ErrCodeWriteRejected, "could not rename"),
		}},
		Final: final,
	}

	var buf bytes.Buffer
	New(&buf).Outcome(plan, result)

	out := buf.String()
	assert.Contains(t, out, "Failed: 'Box' -> 'Box 001': entity 'B' not found\n")
	assert.Contains(t, out, "Renamed: 'Box' -> 'Box 002'\n")
	assert.Contains(t, out, "Skipped: E 'Cone': no free name for 'Cone'\n")
	assert.Contains(t, out, "Done. Renamed 1 object(s).\n")
	assert.Contains(t, out, "1 rename(s) were rejected by the document.\n")
	assert.Contains(t, out, "1 object(s) skipped: no free suffix.\n")
	assert.Contains(t, out, "Duplicate name groups remaining: 1")
}

func TestReporter_Error(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "empty selection",
			err:  errors.New(errors.ErrCodeEmptySelection, "nothing selected"),
			want: "Selected only mode is ON but no objects are selected.\nPlease select some objects and run the toolbox again.\n\n",
		},
		{
			name: "coded error",
			err:  errors.New(errors.ErrCodeStorageConnection, "database unavailable"),
			want: "Error [STORAGE_CONNECTION]: database unavailable\n\n",
		},
		{
			name: "plain error",
			err:  assert.AnError,
			want: "Error [INTERNAL_ERROR]: An internal error occurred\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			New(&buf).Error(tt.err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestReporter_Messages(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)
	r.NoObjects()
	r.AllUnique()
	r.Line("hello")
	r.Done("Name Stats Complete.")

	assert.Equal(t, "No objects found.\nAll object names are already unique.\nhello\nName Stats Complete.\n\n", buf.String())
}

func TestReporter_StylingOnlyWhenRequested(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, IsTerminal(&buf))

	New(&buf, WithStyle(false)).Done("ok")
	assert.Equal(t, "ok\n\n", buf.String())

	buf.Reset()
	New(&buf, WithStyle(true), WithTheme(defaultTheme)).Done("ok")
	assert.Contains(t, buf.String(), "ok")
}
