package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func bookOf(t *testing.T, opts []BookOption, persons ...*Person) *Book {
	t.Helper()
	b := NewBook(opts...)
	require.NoError(t, b.ResetData(persons))
	return b
}

// requireIndexConsistent checks the incrementally maintained index against a fresh rebuild.
func requireIndexConsistent(t require.TestingT, b *Book) {
	fresh := NewModuleIndex()
	fresh.Rebuild(b.Persons())
	require.Equal(t, fresh.Counts(), b.Index().Counts())
}

func TestBook_Mutations(t *testing.T) {
	modes := map[string][]BookOption{
		"incremental":  nil,
		"full rebuild": {WithFullRebuild()},
	}
	for mode, opts := range modes {
		t.Run(mode, func(t *testing.T) {
			a := person(t, "Alex Yeoh", "CS2103-T01")
			b := person(t, "Bernice Yu", "CS2103-T01", "CS2101-T05")
			book := bookOf(t, opts, a)

			require.NoError(t, book.AddPerson(b))
			require.True(t, book.HasPerson(b))
			require.Equal(t, 2, book.Index().Count(groupsOf(t, "CS2103-T01")[0]))
			requireIndexConsistent(t, book)

			edited := b.WithGroups(groupsOf(t, "CS2040-T11")...)
			require.NoError(t, book.SetPerson(b, edited))
			require.False(t, book.Index().HasModule("CS2101"))
			require.True(t, book.Index().HasModule("CS2040"))
			requireIndexConsistent(t, book)

			require.NoError(t, book.RemovePerson(a))
			require.False(t, book.Index().HasModule("CS2103"))
			requireIndexConsistent(t, book)

			require.NoError(t, book.Pin(edited, edited.WithPinned(true)))
			require.Equal(t, 1, book.PinnedCount())
			require.NoError(t, book.Unpin(book.Person(0), edited))
			require.Zero(t, book.PinnedCount())
			requireIndexConsistent(t, book)
		})
	}
}

func TestBook_FailedOperationsLeaveStateUnchanged(t *testing.T) {
	a := person(t, "Alex Yeoh", "CS2103-T01")
	c := person(t, "Charlotte Oliveiro", "CS2101-T05")
	book := bookOf(t, nil, a, c)
	before := book.Index().Counts()

	require.ErrorIs(t, book.AddPerson(person(t, "Alex Yeoh", "CS9999-T99")), ErrDuplicatePerson)
	require.ErrorIs(t, book.SetPerson(a, a.WithName(c.Name()).WithGroups()), ErrDuplicatePerson)
	require.ErrorIs(t, book.RemovePerson(person(t, "Nobody", "CS2103-T01")), ErrNotFound)
	require.ErrorIs(t, book.ResetData([]*Person{a, a}), ErrDuplicatePerson)

	require.Equal(t, before, book.Index().Counts())
	require.Equal(t, []string{"Alex Yeoh", "Charlotte Oliveiro"}, names(book.Persons()))
}

func TestBook_HasEditedPerson(t *testing.T) {
	a := person(t, "A")
	c := person(t, "C")
	book := bookOf(t, nil, a, c)

	require.False(t, book.HasEditedPerson(a.WithEmail(mustEmail(t, "x@example.com")), a))
	require.True(t, book.HasEditedPerson(a.WithName(c.Name()), a))
}

func TestBook_SetPersonScenarios(t *testing.T) {
	a := person(t, "A", "CS2103-T01")
	c := person(t, "C")
	book := bookOf(t, nil, a, c)

	// A' collides with C.
	require.ErrorIs(t, book.SetPerson(a, a.WithName(c.Name())), ErrDuplicatePerson)
	// A'' keeps its own identity.
	require.NoError(t, book.SetPerson(a, a.WithEmail(mustEmail(t, "changed@example.com"))))
	require.Equal(t, "changed@example.com", book.Person(0).Email().String())
}

func TestBook_RebuildIndex(t *testing.T) {
	book := bookOf(t, nil, person(t, "A", "CS2103-T01"))
	book.index.Increment(groupsOf(t, "GHOST-T1")[0])
	require.True(t, book.Index().HasModule("GHOST"))

	book.RebuildIndex()
	require.False(t, book.Index().HasModule("GHOST"))
	requireIndexConsistent(t, book)
}

// TestBook_IndexMatchesList_Property checks that the index always agrees with a full rebuild
// and the pinned prefix stays contiguous, whatever mix of edits, pins and cascades is applied.
func TestBook_IndexMatchesList_Property(t *testing.T) {
	modes := map[string][]BookOption{
		"incremental":  nil,
		"full rebuild": {WithFullRebuild()},
	}
	for mode, opts := range modes {
		t.Run(mode, func(t *testing.T) {
			rapid.Check(t, func(rt *rapid.T) {
				book := NewBook(opts...)
				cascade := NewCascade(book)
				pick := func() *Person {
					return book.Person(rapid.IntRange(0, book.Len()-1).Draw(rt, "target"))
				}
				steps := rapid.IntRange(1, 40).Draw(rt, "steps")
				for i := 0; i < steps; i++ {
					tokens := rapid.SliceOfN(rapid.StringMatching(`M[1-3]-T[1-3]`), 0, 3).Draw(rt, "groups")
					op := rapid.IntRange(0, 6).Draw(rt, "op")
					if op > 0 && op < 5 && book.Len() == 0 {
						continue
					}
					switch op {
					case 0:
						_ = book.AddPerson(person(t, fmt.Sprintf("P%d", rapid.IntRange(0, 8).Draw(rt, "id")), tokens...))
					case 1:
						target := pick()
						edited := target.WithGroups(groupsOf(t, tokens...)...).WithPinned(rapid.Bool().Draw(rt, "pinned"))
						_ = book.SetPerson(target, edited)
					case 2:
						_ = book.RemovePerson(pick())
					case 3:
						target := pick()
						if target.Pinned() {
							_ = book.Unpin(target, target.WithPinned(false))
						} else {
							_ = book.Pin(target, target.WithPinned(true))
						}
					case 4:
						book.Sort(CompareByEmail)
					case 5:
						_, _, _ = cascade.DeleteModule(rapid.StringMatching(`M[1-3]`).Draw(rt, "module"))
					case 6:
						g := groupsOf(t, rapid.StringMatching(`M[1-3]-T[1-3]`).Draw(rt, "group"))[0]
						_, _ = cascade.DeleteModTutGroup(g)
					}
					requireIndexConsistent(rt, book)
					requirePinnedPrefix(rt, book)
				}
			})
		})
	}
}

func requirePinnedPrefix(t require.TestingT, b *Book) {
	persons := b.Persons()
	for i, p := range persons {
		require.Equal(t, i < b.PinnedCount(), p.Pinned(), "position %d", i)
	}
}
