package naming

import (
	"slices"

	"github.com/JamesPrial/scene-namer/pkg/scene"
)

// NameGroup is every entity ID sharing one name, in ID order
type NameGroup struct {
	Name string
	IDs  []string
}

// Size returns the number of entities carrying the name
func (g NameGroup) Size() int {
	return len(g.IDs)
}

// IsDuplicate reports whether more than one entity carries the name
func (g NameGroup) IsDuplicate() bool {
	return len(g.IDs) > 1
}

// NameFrequency is a name and how many entities carry it
type NameFrequency struct {
	Name  string
	Count int
}

// NameIndex classifies a working set by name
type NameIndex struct {
	// Groups are ordered by name
	Groups                 []NameGroup
	TotalEntities          int
	DistinctNames          int
	DuplicateGroupCount    int
	DuplicateInstanceCount int

	byName map[string]int
}

// BuildIndex groups entities by name. Groups are sorted by name and the IDs
// inside a group by ID, so an unchanged input always yields the same index.
func BuildIndex(entities []scene.Entity) *NameIndex {
	members := make(map[string][]string)
	for _, e := range entities {
		members[e.Name] = append(members[e.Name], e.ID)
	}

	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	slices.Sort(names)

	idx := &NameIndex{
		Groups:        make([]NameGroup, 0, len(names)),
		TotalEntities: len(entities),
		DistinctNames: len(names),
		byName:        make(map[string]int, len(names)),
	}
	for _, name := range names {
		ids := members[name]
		slices.Sort(ids)
		if len(ids) > 1 {
			idx.DuplicateGroupCount++
			idx.DuplicateInstanceCount += len(ids) - 1
		}
		idx.byName[name] = len(idx.Groups)
		idx.Groups = append(idx.Groups, NameGroup{Name: name, IDs: ids})
	}
	return idx
}

// Group returns the group for name
func (x *NameIndex) Group(name string) (NameGroup, bool) {
	i, ok := x.byName[name]
	if !ok {
		return NameGroup{}, false
	}
	return x.Groups[i], true
}

// Duplicates returns the groups with more than one member, in name order
func (x *NameIndex) Duplicates() []NameGroup {
	var out []NameGroup
	for _, g := range x.Groups {
		if g.IsDuplicate() {
			out = append(out, g)
		}
	}
	return out
}

// Frequencies returns the member count of every name, in name order
func (x *NameIndex) Frequencies() []NameFrequency {
	out := make([]NameFrequency, 0, len(x.Groups))
	for _, g := range x.Groups {
		out = append(out, NameFrequency{Name: g.Name, Count: g.Size()})
	}
	return out
}

// IsDuplicate reports whether name is carried by more than one entity
func (x *NameIndex) IsDuplicate(name string) bool {
	g, ok := x.Group(name)
	return ok && g.IsDuplicate()
}

// Unique reports whether every name in the index is carried by one entity
func (x *NameIndex) Unique() bool {
	return x.DuplicateGroupCount == 0
}
