package xlsx

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/zjrosen/connects/internal/contacts/domain"
	"github.com/zjrosen/connects/internal/testutil"
)

// workbook builds an in-memory workbook whose first sheet holds rows.
func workbook(t *testing.T, rows ...[]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return &buf
}

func header() []any {
	return []any{"Name", "Email", "Telegram", "Groups"}
}

func TestRead_ParsesRows(t *testing.T) {
	buf := workbook(t,
		header(),
		[]any{"Alex Yeoh", "alexyeoh@example.com", "@alexyeoh", "cs2103-t01, CS2101-T05"},
		[]any{"  Bernice   Yu ", "Bernice@Example.com", "@berniceyu", ""},
		[]any{},
		[]any{"David Li", "david@example.com", "@davidli", "CS2040-T11 CS2103-T02"},
	)

	result, err := Read(buf)
	require.NoError(t, err)
	require.Empty(t, result.Rejected)
	require.Equal(t, []string{"Alex Yeoh", "Bernice Yu", "David Li"}, testutil.Names(result.Persons))

	alex := result.Persons[0]
	require.True(t, alex.HasGroup(testutil.GroupsOf(t, "CS2103-T01")[0]), "groups are uppercased")
	require.Len(t, alex.Groups(), 2)
	require.Equal(t, "bernice@example.com", result.Persons[1].Email().String())
	require.Len(t, result.Persons[2].Groups(), 2)
}

func TestRead_RejectsInvalidAndDuplicateRows(t *testing.T) {
	buf := workbook(t,
		header(),
		[]any{"Alex Yeoh", "alexyeoh@example.com", "@alexyeoh", ""},
		[]any{"Bad Email", "not-an-email", "@bademail", ""},
		[]any{"Alex Yeoh", "other@example.com", "@otheralex", ""},
		[]any{"Bad Group", "bad@example.com", "@badgroup", "CS2103"},
		[]any{"", "", "@nobody", ""},
	)

	result, err := Read(buf)
	require.NoError(t, err)
	require.Equal(t, []string{"Alex Yeoh"}, testutil.Names(result.Persons))
	require.Len(t, result.Rejected, 4)

	require.Equal(t, 3, result.Rejected[0].Row)
	require.ErrorIs(t, result.Rejected[0], domain.ErrValidation)
	require.Equal(t, 4, result.Rejected[1].Row)
	require.ErrorIs(t, result.Rejected[1], domain.ErrDuplicatePerson)
	require.Contains(t, result.Rejected[1].Error(), "first seen on row 2")
	require.Equal(t, 5, result.Rejected[2].Row)
	require.ErrorIs(t, result.Rejected[2], domain.ErrValidation)
	require.Equal(t, 6, result.Rejected[3].Row)
}

func TestRead_NotAWorkbook(t *testing.T) {
	_, err := Read(bytes.NewBufferString("name,email\n"))
	require.Error(t, err)
}

func TestWriteThenRead(t *testing.T) {
	persons := testutil.NewBuilder(t).WithTypicalPersons().Build()
	path := filepath.Join(t.TempDir(), "contacts.xlsx")

	require.NoError(t, WriteFile(path, persons))

	result, err := ReadFile(path)
	require.NoError(t, err)
	require.Empty(t, result.Rejected)
	require.Len(t, result.Persons, len(persons))
	for i := range persons {
		require.True(t, persons[i].Equals(result.Persons[i]), "person %d should survive export and import", i)
	}
}
