package domain

// Book is the contact registry: a UniquePersonList plus the ModuleIndex derived from it.
// Every mutation either succeeds completely or leaves both unchanged.
type Book struct {
	list        *UniquePersonList
	index       *ModuleIndex
	fullRebuild bool
}

// BookOption configures a Book.
type BookOption func(*Book)

// WithFullRebuild makes the book rebuild the whole index after every mutation instead of
// applying per-person deltas.
func WithFullRebuild() BookOption {
	return func(b *Book) {
		b.fullRebuild = true
	}
}

// NewBook creates an empty book.
func NewBook(opts ...BookOption) *Book {
	b := &Book{
		list:  NewUniquePersonList(),
		index: NewModuleIndex(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// HasPerson reports whether a person with the same name exists.
func (b *Book) HasPerson(p *Person) bool {
	return b.list.Contains(p)
}

// HasEditedPerson reports whether edited would collide with a person other than target.
func (b *Book) HasEditedPerson(edited, target *Person) bool {
	return b.list.ContainsExcluding(edited, target)
}

// AddPerson adds p to the book.
func (b *Book) AddPerson(p *Person) error {
	if err := b.list.Add(p); err != nil {
		return err
	}
	b.reindex(nil, p)
	return nil
}

// SetPerson replaces target with edited.
func (b *Book) SetPerson(target, edited *Person) error {
	i := b.list.IndexOf(target)
	if i < 0 {
		return &NotFoundError{Kind: "person", Key: target.name.value}
	}
	current := b.list.Get(i)
	if err := b.list.SetPerson(current, edited); err != nil {
		return err
	}
	b.reindex(current, edited)
	return nil
}

// RemovePerson deletes target.
func (b *Book) RemovePerson(target *Person) error {
	i := b.list.IndexOf(target)
	if i < 0 {
		return &NotFoundError{Kind: "person", Key: target.name.value}
	}
	current := b.list.Get(i)
	if err := b.list.Remove(current); err != nil {
		return err
	}
	b.reindex(current, nil)
	return nil
}

// Pin moves target into the pinned prefix as pinned. Groups do not change, so the index is untouched.
func (b *Book) Pin(target, pinned *Person) error {
	return b.list.Pin(target, pinned)
}

// Unpin moves target out of the pinned prefix as unpinned.
func (b *Book) Unpin(target, unpinned *Person) error {
	return b.list.Unpin(target, unpinned)
}

// Sort orders the unpinned persons with cmp.
func (b *Book) Sort(cmp func(a, b *Person) int) {
	b.list.Sort(cmp)
}

// ResetData replaces every person and rebuilds the index.
func (b *Book) ResetData(persons []*Person) error {
	if err := b.list.SetPersons(persons); err != nil {
		return err
	}
	b.index.Rebuild(b.list.persons)
	return nil
}

// RebuildIndex recomputes the index from the person list. It is the only repair for an
// index suspected to be out of sync.
func (b *Book) RebuildIndex() {
	b.index.Rebuild(b.list.persons)
}

// Persons returns the persons in display order.
func (b *Book) Persons() []*Person { return b.list.Persons() }

// Person returns the person at position i, or nil.
func (b *Book) Person(i int) *Person { return b.list.Get(i) }

// Len returns the number of persons.
func (b *Book) Len() int { return b.list.Len() }

// PinnedCount returns the number of pinned persons.
func (b *Book) PinnedCount() int { return b.list.PinnedCount() }

// Index returns a read-only view of the module index.
func (b *Book) Index() IndexView { return b.index }

// reindex applies the group delta between removed and added, either of which may be nil.
func (b *Book) reindex(removed, added *Person) {
	if b.fullRebuild {
		b.index.Rebuild(b.list.persons)
		return
	}
	if removed != nil {
		for g := range removed.groups {
			b.index.Decrement(g)
		}
	}
	if added != nil {
		for g := range added.groups {
			b.index.Increment(g)
		}
	}
}
