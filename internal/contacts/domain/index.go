package domain

import (
	"maps"
	"slices"
)

// IndexView is read-only access to a ModuleIndex.
type IndexView interface {
	// Count returns how many persons hold g.
	Count(g ModTutGroup) int

	// HasModule reports whether any person holds a group of module.
	HasModule(module string) bool

	// HasGroup reports whether any person holds g.
	HasGroup(g ModTutGroup) bool

	// Modules returns all modules, sorted.
	Modules() []string

	// Tutorials returns the tutorials of module with their counts.
	Tutorials(module string) map[string]int

	// Counts returns a deep copy of the whole index.
	Counts() map[string]map[string]int

	// Len returns the number of modules.
	Len() int
}

var _ IndexView = (*ModuleIndex)(nil)

// ModuleIndex counts, per module and tutorial, the persons holding that ModTutGroup.
// Entries whose count reaches zero are removed, and so are modules left without tutorials.
type ModuleIndex struct {
	counts map[string]map[string]int
}

// NewModuleIndex creates an empty index.
func NewModuleIndex() *ModuleIndex {
	return &ModuleIndex{counts: make(map[string]map[string]int)}
}

// Rebuild clears the index and repopulates it from persons.
func (idx *ModuleIndex) Rebuild(persons []*Person) {
	idx.counts = make(map[string]map[string]int)
	for _, p := range persons {
		for g := range p.groups {
			idx.Increment(g)
		}
	}
}

// Increment adds one reference to g.
func (idx *ModuleIndex) Increment(g ModTutGroup) {
	tutorials, ok := idx.counts[g.module]
	if !ok {
		tutorials = make(map[string]int)
		idx.counts[g.module] = tutorials
	}
	tutorials[g.tutorial]++
}

// Decrement removes one reference to g, pruning empty entries. Absent entries are ignored:
// a cascade may already have removed them.
func (idx *ModuleIndex) Decrement(g ModTutGroup) {
	tutorials, ok := idx.counts[g.module]
	if !ok {
		return
	}
	count, ok := tutorials[g.tutorial]
	if !ok {
		return
	}
	if count <= 1 {
		delete(tutorials, g.tutorial)
		if len(tutorials) == 0 {
			delete(idx.counts, g.module)
		}
		return
	}
	tutorials[g.tutorial] = count - 1
}

// RemoveModule deletes every entry of module and returns the groups that existed, sorted.
func (idx *ModuleIndex) RemoveModule(module string) ([]ModTutGroup, error) {
	tutorials, ok := idx.counts[module]
	if !ok {
		return nil, &NotFoundError{Kind: "module", Key: module}
	}
	removed := make([]ModTutGroup, 0, len(tutorials))
	for t := range tutorials {
		removed = append(removed, ModTutGroup{module: module, tutorial: t})
	}
	slices.SortFunc(removed, compareGroups)
	delete(idx.counts, module)
	return removed, nil
}

// RemoveTutorial deletes the entry for g, and its module if that was the last tutorial.
func (idx *ModuleIndex) RemoveTutorial(g ModTutGroup) (bool, error) {
	tutorials, ok := idx.counts[g.module]
	if !ok {
		return false, &NotFoundError{Kind: "tutorial", Key: g.String()}
	}
	if _, ok := tutorials[g.tutorial]; !ok {
		return false, &NotFoundError{Kind: "tutorial", Key: g.String()}
	}
	delete(tutorials, g.tutorial)
	if len(tutorials) == 0 {
		delete(idx.counts, g.module)
	}
	return true, nil
}

// Count returns how many persons hold g.
func (idx *ModuleIndex) Count(g ModTutGroup) int {
	return idx.counts[g.module][g.tutorial]
}

// HasModule reports whether module has any entry.
func (idx *ModuleIndex) HasModule(module string) bool {
	_, ok := idx.counts[module]
	return ok
}

// HasGroup reports whether g has an entry.
func (idx *ModuleIndex) HasGroup(g ModTutGroup) bool {
	return idx.Count(g) > 0
}

// Modules returns the indexed modules in lexical order.
func (idx *ModuleIndex) Modules() []string {
	return slices.Sorted(maps.Keys(idx.counts))
}

// Tutorials returns a copy of the tutorial counts of module, or nil if it is absent.
func (idx *ModuleIndex) Tutorials(module string) map[string]int {
	tutorials, ok := idx.counts[module]
	if !ok {
		return nil
	}
	return maps.Clone(tutorials)
}

// Counts returns a deep copy of the index.
func (idx *ModuleIndex) Counts() map[string]map[string]int {
	out := make(map[string]map[string]int, len(idx.counts))
	for m, tutorials := range idx.counts {
		out[m] = maps.Clone(tutorials)
	}
	return out
}

// Len returns the number of indexed modules.
func (idx *ModuleIndex) Len() int {
	return len(idx.counts)
}
