// Package testutil builds contact fixtures for tests.
package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/connects/internal/contacts/domain"
)

// Builder accumulates persons and validates them on Build.
type Builder struct {
	t       testing.TB
	persons []personData
}

// NewBuilder creates an empty builder.
func NewBuilder(t testing.TB) *Builder {
	t.Helper()
	return &Builder{t: t}
}

// WithPerson adds a person with optional configuration.
func (b *Builder) WithPerson(name string, opts ...PersonOption) *Builder {
	data := defaultPerson(name)
	for _, opt := range opts {
		opt(&data)
	}
	b.persons = append(b.persons, data)
	return b
}

// Build returns the persons in the order they were added. Pinned persons are not moved;
// loading them into a book does that.
func (b *Builder) Build() []*domain.Person {
	b.t.Helper()
	out := make([]*domain.Person, 0, len(b.persons))
	for _, data := range b.persons {
		out = append(out, b.build(data))
	}
	return out
}

// Book loads the built persons into a new book.
func (b *Builder) Book(opts ...domain.BookOption) *domain.Book {
	b.t.Helper()
	book := domain.NewBook(opts...)
	require.NoError(b.t, book.ResetData(b.Build()))
	return book
}

// Repository returns a MemoryRepository whose latest snapshot holds the built persons.
func (b *Builder) Repository() *MemoryRepository {
	b.t.Helper()
	repo := NewMemoryRepository()
	repo.Seed(b.Build())
	return repo
}

func (b *Builder) build(data personData) *domain.Person {
	b.t.Helper()
	name, err := domain.NewName(data.name)
	require.NoError(b.t, err)
	email, err := domain.NewEmail(data.email)
	require.NoError(b.t, err)
	handle, err := domain.NewTelegramHandle(data.handle)
	require.NoError(b.t, err)
	p := domain.NewPerson(name, email, handle, GroupsOf(b.t, data.groups...)...)
	if data.pinned {
		p = p.WithPinned(true)
	}
	return p
}

// Person builds a single person.
func Person(t testing.TB, name string, opts ...PersonOption) *domain.Person {
	t.Helper()
	return NewBuilder(t).WithPerson(name, opts...).Build()[0]
}

// GroupsOf parses module-tutorial group tokens.
func GroupsOf(t testing.TB, tokens ...string) []domain.ModTutGroup {
	t.Helper()
	out := make([]domain.ModTutGroup, 0, len(tokens))
	for _, tok := range tokens {
		g, err := domain.ParseModTutGroup(tok)
		require.NoError(t, err)
		out = append(out, g)
	}
	return out
}

// Names returns the names of persons in order.
func Names(persons []*domain.Person) []string {
	out := make([]string, len(persons))
	for i, p := range persons {
		out[i] = p.Name().String()
	}
	return out
}

func slugOf(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), ""))
}
