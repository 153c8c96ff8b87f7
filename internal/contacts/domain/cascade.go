package domain

import "fmt"

// Cascade deletes modules and module-tutorial groups from a book's index and strips them
// from every person that holds them.
//
// The index changes first. If the person updates were interrupted the index would be a subset
// of what the list implies, which Book.RebuildIndex repairs.
type Cascade struct {
	book *Book
}

// NewCascade creates a cascade over book.
func NewCascade(book *Book) *Cascade {
	return &Cascade{book: book}
}

// DeleteModule removes module and every group under it. It returns the removed groups and the
// number of persons that were updated.
func (c *Cascade) DeleteModule(module string) ([]ModTutGroup, int, error) {
	groups, err := c.book.index.RemoveModule(module)
	if err != nil {
		return nil, 0, err
	}
	updated, err := c.strip(groups)
	if err != nil {
		return nil, updated, err
	}
	return groups, updated, nil
}

// DeleteModTutGroup removes a single group. It returns the number of persons that were updated.
func (c *Cascade) DeleteModTutGroup(g ModTutGroup) (int, error) {
	if _, err := c.book.index.RemoveTutorial(g); err != nil {
		return 0, err
	}
	return c.strip([]ModTutGroup{g})
}

// strip removes groups from every person holding one of them and returns how many were
// updated. It stops at the first person the list refuses to replace.
func (c *Cascade) strip(groups []ModTutGroup) (int, error) {
	updated := 0
	for _, p := range c.book.list.Persons() {
		if !holdsAny(p, groups) {
			continue
		}
		if err := c.book.list.SetPerson(p, p.WithoutGroups(groups...)); err != nil {
			return updated, fmt.Errorf("stripping groups from %s: %w", p.name, err)
		}
		updated++
	}
	if c.book.fullRebuild {
		c.book.index.Rebuild(c.book.list.persons)
	}
	return updated, nil
}

func holdsAny(p *Person, groups []ModTutGroup) bool {
	for _, g := range groups {
		if p.HasGroup(g) {
			return true
		}
	}
	return false
}
