package naming

import (
	"testing"

	"github.com/JamesPrial/scene-namer/pkg/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entities(pairs ...string) []scene.Entity {
	out := make([]scene.Entity, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, scene.Entity{ID: pairs[i], Name: pairs[i+1], Kind: scene.KindGeometry, Space: scene.SpaceModel})
	}
	return out
}

func TestBuildIndex_Statistics(t *testing.T) {
	idx := BuildIndex(entities("A", "Box", "B", "Box", "C", "Box", "D", "Bill"))

	assert.Equal(t, 4, idx.TotalEntities)
	assert.Equal(t, 2, idx.DistinctNames)
	assert.Equal(t, 1, idx.DuplicateGroupCount)
	assert.Equal(t, 2, idx.DuplicateInstanceCount)
	assert.False(t, idx.Unique())
}

func TestBuildIndex_Ordering(t *testing.T) {
	idx := BuildIndex(entities("z9", "Cube", "b2", "Box", "a1", "Cube", "c3", "Box", "m0", "Apple"))

	require.Len(t, idx.Groups, 3)
	assert.Equal(t, "Apple", idx.Groups[0].Name)
	assert.Equal(t, "Box", idx.Groups[1].Name)
	assert.Equal(t, []string{"b2", "c3"}, idx.Groups[1].IDs)
	assert.Equal(t, []string{"a1", "z9"}, idx.Groups[2].IDs)
}

func TestBuildIndex_Empty(t *testing.T) {
	idx := BuildIndex(nil)
	assert.Equal(t, 0, idx.TotalEntities)
	assert.Empty(t, idx.Groups)
	assert.Empty(t, idx.Duplicates())
	assert.True(t, idx.Unique())
}

func TestNameIndex_Accessors(t *testing.T) {
	idx := BuildIndex(entities("1", "Box", "2", "Bill", "3", "Box", "4", "Cone", "5", "Cone", "6", "Cone"))

	g, ok := idx.Group("Cone")
	require.True(t, ok)
	assert.Equal(t, 3, g.Size())
	assert.True(t, g.IsDuplicate())

	_, ok = idx.Group("Sphere")
	assert.False(t, ok)

	assert.True(t, idx.IsDuplicate("Box"))
	assert.False(t, idx.IsDuplicate("Bill"))
	assert.False(t, idx.IsDuplicate("Sphere"))

	dups := idx.Duplicates()
	require.Len(t, dups, 2)
	assert.Equal(t, "Box", dups[0].Name)
	assert.Equal(t, "Cone", dups[1].Name)

	assert.Equal(t, []NameFrequency{
		{Name: "Bill", Count: 1},
		{Name: "Box", Count: 2},
		{Name: "Cone", Count: 3},
	}, idx.Frequencies())
	assert.Equal(t, 3, idx.DuplicateInstanceCount)
}
