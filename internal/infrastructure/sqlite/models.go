package sqlite

import (
	"fmt"
	"time"

	"github.com/zjrosen/connects/internal/contacts/domain"
)

// SnapshotModel represents a row of the snapshots table.
type SnapshotModel struct {
	ID          int64
	GUID        string
	SavedAt     int64 // Unix nanoseconds
	PersonCount int
}

// PersonModel represents a row of the persons table plus its person_groups rows.
type PersonModel struct {
	Position int
	Name     string
	Email    string
	Handle   string
	Pinned   bool
	Groups   []GroupModel
}

// GroupModel represents a row of the person_groups table.
type GroupModel struct {
	Module   string
	Tutorial string
}

// toPersonModel converts a domain Person at position to its row form.
func toPersonModel(position int, p *domain.Person) *PersonModel {
	m := &PersonModel{
		Position: position,
		Name:     p.Name().String(),
		Email:    p.Email().String(),
		Handle:   p.Handle().String(),
		Pinned:   p.Pinned(),
	}
	for _, g := range p.Groups() {
		m.Groups = append(m.Groups, GroupModel{Module: g.Module(), Tutorial: g.Tutorial()})
	}
	return m
}

// toDomain re-validates the stored fields. Rows edited outside the program may hold values
// the value objects reject.
func (m *PersonModel) toDomain() (*domain.Person, error) {
	name, err := domain.NewName(m.Name)
	if err != nil {
		return nil, fmt.Errorf("person %d: %w", m.Position, err)
	}
	email, err := domain.NewEmail(m.Email)
	if err != nil {
		return nil, fmt.Errorf("person %d: %w", m.Position, err)
	}
	handle, err := domain.NewTelegramHandle(m.Handle)
	if err != nil {
		return nil, fmt.Errorf("person %d: %w", m.Position, err)
	}
	groups := make([]domain.ModTutGroup, 0, len(m.Groups))
	for _, gm := range m.Groups {
		g, err := domain.ParseModTutGroup(gm.Module + "-" + gm.Tutorial)
		if err != nil {
			return nil, fmt.Errorf("person %d: %w", m.Position, err)
		}
		groups = append(groups, g)
	}
	return domain.NewPerson(name, email, handle, groups...).WithPinned(m.Pinned), nil
}

func (m *SnapshotModel) savedAt() time.Time {
	return time.Unix(0, m.SavedAt)
}
