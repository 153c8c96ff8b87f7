package domain

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func listOf(t *testing.T, persons ...*Person) *UniquePersonList {
	t.Helper()
	l := NewUniquePersonList()
	require.NoError(t, l.SetPersons(persons))
	return l
}

func TestUniquePersonList_Add(t *testing.T) {
	l := NewUniquePersonList()
	alex := person(t, "Alex Yeoh")

	require.NoError(t, l.Add(alex))
	require.True(t, l.Contains(alex))
	require.Equal(t, 1, l.Len())

	dup := person(t, "Alex Yeoh", "CS2103-T01")
	err := l.Add(dup)
	require.ErrorIs(t, err, ErrDuplicatePerson)
	var derr *DuplicatePersonError
	require.ErrorAs(t, err, &derr)
	require.Equal(t, "Alex Yeoh", derr.Name.String())
	require.Equal(t, 1, l.Len(), "failed add leaves the list unchanged")
	require.Same(t, alex, l.Get(0))
}

func TestUniquePersonList_AddPinnedJoinsPrefix(t *testing.T) {
	a := person(t, "A").WithPinned(true)
	b := person(t, "B")
	l := listOf(t, a, b)

	c := person(t, "C").WithPinned(true)
	require.NoError(t, l.Add(c))
	require.Equal(t, []string{"A", "C", "B"}, names(l.Persons()))
	require.Equal(t, 2, l.PinnedCount())
}

func TestUniquePersonList_AddThenContains_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		l := NewUniquePersonList()
		n := rapid.IntRange(0, 20).Draw(rt, "n")
		for i := 0; i < n; i++ {
			name := rapid.StringMatching(`[A-Za-z][a-z0-9]{0,8}`).Draw(rt, "name")
			p := person(t, name)
			before := l.Len()
			existed := l.Contains(p)

			err := l.Add(p)
			if existed {
				if err == nil {
					rt.Fatalf("adding duplicate %q succeeded", name)
				}
				if l.Len() != before {
					rt.Fatalf("failed add changed length from %d to %d", before, l.Len())
				}
				continue
			}
			if err != nil {
				rt.Fatalf("add %q: %v", name, err)
			}
			if !l.Contains(p) || l.Len() != before+1 {
				rt.Fatalf("add %q: contains=%v len=%d want %d", name, l.Contains(p), l.Len(), before+1)
			}
		}
	})
}

func TestUniquePersonList_SetPerson(t *testing.T) {
	a := person(t, "Alex Yeoh", "CS2103-T01")
	b := person(t, "Bernice Yu")
	c := person(t, "Charlotte Oliveiro")

	t.Run("same identity with changed fields succeeds in place", func(t *testing.T) {
		l := listOf(t, a, b, c)
		edited := a.WithGroups(groupsOf(t, "CS2101-T05")...)
		require.NoError(t, l.SetPerson(a, edited))
		require.Same(t, edited, l.Get(0))
		require.Equal(t, 3, l.Len())
	})

	t.Run("collision with a different person fails", func(t *testing.T) {
		l := listOf(t, a, b, c)
		edited := a.WithName(c.Name())
		err := l.SetPerson(a, edited)
		require.ErrorIs(t, err, ErrDuplicatePerson)
		require.Same(t, a, l.Get(0))
	})

	t.Run("rename to a free name succeeds", func(t *testing.T) {
		l := listOf(t, a, b, c)
		renamed := a.WithName(person(t, "David Li").Name())
		require.NoError(t, l.SetPerson(a, renamed))
		require.Equal(t, []string{"David Li", "Bernice Yu", "Charlotte Oliveiro"}, names(l.Persons()))
	})

	t.Run("missing target", func(t *testing.T) {
		l := listOf(t, b)
		require.ErrorIs(t, l.SetPerson(a, a), ErrNotFound)
	})

	t.Run("target matched by strong equality", func(t *testing.T) {
		l := listOf(t, a, b)
		copyOfA := a.WithGroups(a.Groups()...)
		require.NoError(t, l.SetPerson(copyOfA, a.WithEmail(mustEmail(t, "new@example.com"))))
		require.Equal(t, "new@example.com", l.Get(0).Email().String())
	})

	t.Run("pin change moves the person", func(t *testing.T) {
		p := person(t, "Pinned").WithPinned(true)
		l := listOf(t, p, a, b)
		require.NoError(t, l.SetPerson(b, b.WithPinned(true)))
		require.Equal(t, []string{"Pinned", "Bernice Yu", "Alex Yeoh"}, names(l.Persons()))
		require.NoError(t, l.SetPerson(l.Get(0), p.WithPinned(false)))
		require.Equal(t, []string{"Bernice Yu", "Pinned", "Alex Yeoh"}, names(l.Persons()))
	})
}

func TestUniquePersonList_Remove(t *testing.T) {
	a, b, c := person(t, "A"), person(t, "B"), person(t, "C")
	l := listOf(t, a, b, c)

	require.NoError(t, l.Remove(b))
	require.Equal(t, []string{"A", "C"}, names(l.Persons()))
	require.ErrorIs(t, l.Remove(b), ErrNotFound)
	require.Equal(t, 2, l.Len())
}

func TestUniquePersonList_PinThenSort(t *testing.T) {
	a := person(t, "Zed", "CS2103-T01").WithPinned(true)
	b := person(t, "Amy", "CS2103-T01", "CS2101-T05")
	l := listOf(t, a, b)

	require.NoError(t, l.Pin(b, b.WithPinned(true)))
	require.Equal(t, []string{"Zed", "Amy"}, names(l.Persons()))

	l.Sort(CompareByName)
	require.Equal(t, []string{"Zed", "Amy"}, names(l.Persons()), "sort leaves the pinned prefix alone")
	require.True(t, l.Get(1).Pinned())
}

func TestUniquePersonList_PinAndUnpinPositions(t *testing.T) {
	p1 := person(t, "P1").WithPinned(true)
	p2 := person(t, "P2").WithPinned(true)
	u1, u2, u3 := person(t, "U1"), person(t, "U2"), person(t, "U3")
	l := listOf(t, p1, p2, u1, u2, u3)

	require.NoError(t, l.Pin(u3, u3.WithPinned(true)))
	require.Equal(t, []string{"P1", "P2", "U3", "U1", "U2"}, names(l.Persons()))

	require.NoError(t, l.Unpin(p1, p1.WithPinned(false)))
	require.Equal(t, []string{"P2", "U3", "P1", "U1", "U2"}, names(l.Persons()))
	require.Equal(t, 2, l.PinnedCount())
}

func TestUniquePersonList_PinErrors(t *testing.T) {
	a := person(t, "A", "CS2103-T01")
	p := person(t, "P").WithPinned(true)
	l := listOf(t, p, a)

	require.ErrorIs(t, l.Pin(p, p), ErrAlreadyPinned)
	require.ErrorIs(t, l.Unpin(a, a), ErrNotPinned)
	require.ErrorIs(t, l.Pin(a, a), ErrPinMismatch, "variant must differ in pin status")
	require.ErrorIs(t, l.Pin(a, a.WithoutGroups(a.Groups()...).WithPinned(true)), ErrPinMismatch, "variant must not change other fields")
	require.ErrorIs(t, l.Pin(person(t, "Nobody"), person(t, "Nobody").WithPinned(true)), ErrNotFound)
	require.Equal(t, []string{"P", "A"}, names(l.Persons()))
}

func TestUniquePersonList_SortIsStable(t *testing.T) {
	l := listOf(t, person(t, "b"), person(t, "B"), person(t, "a"), person(t, "A"))
	l.Sort(func(x, y *Person) int {
		return strings.Compare(strings.ToLower(x.Name().String()), strings.ToLower(y.Name().String()))
	})
	require.Equal(t, []string{"a", "A", "b", "B"}, names(l.Persons()))
}

func TestUniquePersonList_SetPersons(t *testing.T) {
	a := person(t, "A")
	b := person(t, "B").WithPinned(true)
	c := person(t, "C")
	d := person(t, "D").WithPinned(true)

	l := listOf(t, a)
	require.NoError(t, l.SetPersons([]*Person{a, b, c, d}))
	require.Equal(t, []string{"B", "D", "A", "C"}, names(l.Persons()))

	err := l.SetPersons([]*Person{a, person(t, "A", "CS2103-T01")})
	require.ErrorIs(t, err, ErrDuplicatePerson)
	require.Equal(t, []string{"B", "D", "A", "C"}, names(l.Persons()), "failed reset leaves the list unchanged")
}

func TestUniquePersonList_PersonsIsACopy(t *testing.T) {
	l := listOf(t, person(t, "A"), person(t, "B"))
	persons := l.Persons()
	persons[0] = nil
	require.NotNil(t, l.Get(0))
	require.Nil(t, l.Get(5))
	require.Nil(t, l.Get(-1))
}

// TestUniquePersonList_Invariants_Property drives random operation sequences and checks that
// names stay unique and pinned persons stay a contiguous prefix.
func TestUniquePersonList_Invariants_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		l := NewUniquePersonList()
		steps := rapid.IntRange(1, 60).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			op := rapid.SampledFrom([]string{"add", "remove", "pin", "unpin", "set", "sort"}).Draw(rt, "op")
			switch op {
			case "add":
				p := person(t, fmt.Sprintf("P%d", rapid.IntRange(0, 15).Draw(rt, "id")))
				if rapid.Bool().Draw(rt, "pinned") {
					p = p.WithPinned(true)
				}
				_ = l.Add(p)
			case "remove", "pin", "unpin", "set":
				if l.Len() == 0 {
					continue
				}
				target := l.Get(rapid.IntRange(0, l.Len()-1).Draw(rt, "target"))
				switch op {
				case "remove":
					_ = l.Remove(target)
				case "pin":
					_ = l.Pin(target, target.WithPinned(true))
				case "unpin":
					_ = l.Unpin(target, target.WithPinned(false))
				case "set":
					edited := target.WithName(person(t, fmt.Sprintf("P%d", rapid.IntRange(0, 15).Draw(rt, "newID"))).Name())
					if rapid.Bool().Draw(rt, "flip") {
						edited = edited.WithPinned(!edited.Pinned())
					}
					_ = l.SetPerson(target, edited)
				}
			case "sort":
				l.Sort(CompareByName)
			}
			checkListInvariants(rt, l)
		}
	})
}

func checkListInvariants(rt *rapid.T, l *UniquePersonList) {
	seen := make(map[Name]bool)
	inPrefix := true
	for i, p := range l.Persons() {
		if seen[p.Name()] {
			rt.Fatalf("duplicate name %s at %d", p.Name(), i)
		}
		seen[p.Name()] = true
		if p.Pinned() && !inPrefix {
			rt.Fatalf("pinned person %s at %d follows an unpinned one", p.Name(), i)
		}
		if !p.Pinned() {
			inPrefix = false
		}
	}
}
