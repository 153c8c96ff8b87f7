package domain

import "slices"

// UniquePersonList is an ordered sequence of persons with unique names.
// Pinned persons always occupy a contiguous prefix.
type UniquePersonList struct {
	persons []*Person
}

// NewUniquePersonList creates an empty list.
func NewUniquePersonList() *UniquePersonList {
	return &UniquePersonList{}
}

// Len returns the number of persons.
func (l *UniquePersonList) Len() int { return len(l.persons) }

// Get returns the person at position i, or nil when i is out of range.
func (l *UniquePersonList) Get(i int) *Person {
	if i < 0 || i >= len(l.persons) {
		return nil
	}
	return l.persons[i]
}

// Persons returns the persons in display order. The slice is a copy; the persons are immutable.
func (l *UniquePersonList) Persons() []*Person {
	return slices.Clone(l.persons)
}

// PinnedCount returns the length of the pinned prefix.
func (l *UniquePersonList) PinnedCount() int {
	n := 0
	for n < len(l.persons) && l.persons[n].pinned {
		n++
	}
	return n
}

// Contains reports whether a person with the same name is present.
func (l *UniquePersonList) Contains(p *Person) bool {
	return slices.ContainsFunc(l.persons, p.IsSamePerson)
}

// ContainsExcluding reports whether a person other than excluded has the same name as candidate.
func (l *UniquePersonList) ContainsExcluding(candidate, excluded *Person) bool {
	for _, p := range l.persons {
		if p == excluded || (excluded != nil && p.Equals(excluded)) {
			continue
		}
		if p.IsSamePerson(candidate) {
			return true
		}
	}
	return false
}

// IndexOf returns the position of target, matched by reference or strong equality, or -1.
func (l *UniquePersonList) IndexOf(target *Person) int {
	if i := slices.Index(l.persons, target); i >= 0 {
		return i
	}
	return slices.IndexFunc(l.persons, target.Equals)
}

// Add appends p to its pin class: unpinned persons go to the end of the list, pinned persons
// to the end of the pinned prefix.
func (l *UniquePersonList) Add(p *Person) error {
	if l.Contains(p) {
		return &DuplicatePersonError{Name: p.name}
	}
	l.insert(p)
	return nil
}

// SetPerson replaces target with edited. The position is kept unless the pin status changes,
// in which case edited moves as it would under Pin or Unpin.
func (l *UniquePersonList) SetPerson(target, edited *Person) error {
	i := l.IndexOf(target)
	if i < 0 {
		return &NotFoundError{Kind: "person", Key: target.name.value}
	}
	current := l.persons[i]
	if l.ContainsExcluding(edited, current) {
		return &DuplicatePersonError{Name: edited.name}
	}
	if current.pinned == edited.pinned {
		l.persons[i] = edited
		return nil
	}
	l.persons = slices.Delete(l.persons, i, i+1)
	l.move(edited)
	return nil
}

// Remove deletes target, keeping the relative order of the rest.
func (l *UniquePersonList) Remove(target *Person) error {
	i := l.IndexOf(target)
	if i < 0 {
		return &NotFoundError{Kind: "person", Key: target.name.value}
	}
	l.persons = slices.Delete(l.persons, i, i+1)
	return nil
}

// Pin replaces the unpinned target with pinned and moves it to the end of the pinned prefix.
// pinned must equal target in every field except the pin flag.
func (l *UniquePersonList) Pin(target, pinned *Person) error {
	i := l.IndexOf(target)
	if i < 0 {
		return &NotFoundError{Kind: "person", Key: target.name.value}
	}
	current := l.persons[i]
	if current.pinned {
		return ErrAlreadyPinned
	}
	if !pinned.pinned || !current.WithPinned(true).Equals(pinned) {
		return ErrPinMismatch
	}
	l.persons = slices.Delete(l.persons, i, i+1)
	l.move(pinned)
	return nil
}

// Unpin replaces the pinned target with unpinned and moves it to the start of the unpinned suffix.
func (l *UniquePersonList) Unpin(target, unpinned *Person) error {
	i := l.IndexOf(target)
	if i < 0 {
		return &NotFoundError{Kind: "person", Key: target.name.value}
	}
	current := l.persons[i]
	if !current.pinned {
		return ErrNotPinned
	}
	if unpinned.pinned || !current.WithPinned(false).Equals(unpinned) {
		return ErrPinMismatch
	}
	l.persons = slices.Delete(l.persons, i, i+1)
	l.move(unpinned)
	return nil
}

// Sort stably sorts the unpinned suffix with cmp. The pinned prefix keeps its pin order.
func (l *UniquePersonList) Sort(cmp func(a, b *Person) int) {
	slices.SortStableFunc(l.persons[l.PinnedCount():], cmp)
}

// SetPersons replaces the whole sequence. It fails without changes if two persons share a name.
// Pinned persons are moved ahead of unpinned ones, each class keeping its given order.
func (l *UniquePersonList) SetPersons(persons []*Person) error {
	seen := make(map[Name]struct{}, len(persons))
	for _, p := range persons {
		if _, ok := seen[p.name]; ok {
			return &DuplicatePersonError{Name: p.name}
		}
		seen[p.name] = struct{}{}
	}
	next := make([]*Person, 0, len(persons))
	for _, p := range persons {
		if p.pinned {
			next = append(next, p)
		}
	}
	for _, p := range persons {
		if !p.pinned {
			next = append(next, p)
		}
	}
	l.persons = next
	return nil
}

// insert places p at the end of its pin class. Pinned persons land at the end of the prefix,
// unpinned persons at the end of the list.
func (l *UniquePersonList) insert(p *Person) {
	if !p.pinned {
		l.persons = append(l.persons, p)
		return
	}
	l.persons = slices.Insert(l.persons, l.PinnedCount(), p)
}

// move places p at the boundary between the pin classes: the end of the pinned prefix for a
// pinned person, the start of the unpinned suffix otherwise. Both are the same position.
func (l *UniquePersonList) move(p *Person) {
	l.persons = slices.Insert(l.persons, l.PinnedCount(), p)
}
