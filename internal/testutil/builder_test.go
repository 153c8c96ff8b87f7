package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/connects/internal/contacts/domain"
)

func TestBuilder_WithPerson_Defaults(t *testing.T) {
	p := Person(t, "Alex Yeoh")
	require.Equal(t, "Alex Yeoh", p.Name().String())
	require.Equal(t, "alexyeoh@example.com", p.Email().String())
	require.Equal(t, "@tgalexyeohxx", p.Handle().String())
	require.Empty(t, p.Groups())
	require.False(t, p.Pinned())
}

func TestBuilder_WithPerson_AllOptions(t *testing.T) {
	p := Person(t, "Bernice Yu",
		Email("bernice@u.nus.edu"),
		Handle("@berniceyu"),
		Groups("CS2103-T01", "CS2101-T05"),
		Pinned(),
	)
	require.Equal(t, "bernice@u.nus.edu", p.Email().String())
	require.Equal(t, "@berniceyu", p.Handle().String())
	require.Len(t, p.Groups(), 2)
	require.True(t, p.Pinned())
}

func TestBuilder_BookMovesPinnedFirst(t *testing.T) {
	book := NewBuilder(t).
		WithPerson("Alex Yeoh").
		WithPerson("Bernice Yu", Pinned()).
		Book()
	require.Equal(t, []string{"Bernice Yu", "Alex Yeoh"}, Names(book.Persons()))
	require.Equal(t, 1, book.PinnedCount())
}

func TestPreset_TypicalPersons(t *testing.T) {
	book := NewBuilder(t).WithTypicalPersons().Book()
	require.Equal(t, 6, book.Len())
	require.Equal(t, TypicalModuleCounts(), book.Index().Counts())
}

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	_, err := repo.Load(ctx)
	require.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	require.ErrorIs(t, err, domain.ErrPersistence)

	snapshot := &domain.Snapshot{Persons: NewBuilder(t).WithTypicalPersons().Build()}
	require.NoError(t, repo.Save(ctx, snapshot))
	require.Equal(t, "mem-1", snapshot.ID)

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Persons, 6)

	boom := errors.New("disk full")
	repo.FailSaves(boom)
	require.ErrorIs(t, repo.Save(ctx, snapshot), boom)
	require.Equal(t, 1, repo.Saves())

	require.NoError(t, repo.Close())
	require.True(t, repo.Closed())
}
