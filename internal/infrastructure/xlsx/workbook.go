// Package xlsx reads and writes contact lists as Excel workbooks.
//
// The first sheet holds one person per row after a header row, in the columns
// Name | Email | Telegram | Groups. Groups are separated by commas or spaces.
package xlsx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/zjrosen/connects/internal/contacts/domain"
	"github.com/zjrosen/connects/internal/log"
)

// Header is the first row written by Write and skipped by Read.
var Header = []string{"Name", "Email", "Telegram", "Groups"}

// ErrNoSheet is returned for a workbook without sheets.
var ErrNoSheet = errors.New("workbook does not contain any sheets")

// RowError reports a row that could not be turned into a person.
type RowError struct {
	Row int // 1-based, as shown by spreadsheet programs
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Result holds the persons read from a workbook and the rows that were rejected.
type Result struct {
	Persons  []*domain.Person
	Rejected []*RowError
}

// ReadFile reads the workbook at path.
func ReadFile(path string) (*Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer closeWorkbook(f)
	return read(f)
}

// Read reads a workbook from r.
func Read(r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer closeWorkbook(f)
	return read(f)
}

func read(f *excelize.File) (*Result, error) {
	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrNoSheet
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheet, err)
	}

	result := &Result{}
	seen := make(map[domain.Name]int)
	for i, row := range rows {
		if i == 0 || blank(row) {
			continue
		}
		p, err := parseRow(row)
		if err == nil {
			if first, dup := seen[p.Name()]; dup {
				err = fmt.Errorf("%w (first seen on row %d)", &domain.DuplicatePersonError{Name: p.Name()}, first)
			}
		}
		if err != nil {
			log.Debug(log.CatImport, "Skipping row", "row", i+1, "error", err)
			result.Rejected = append(result.Rejected, &RowError{Row: i + 1, Err: err})
			continue
		}
		seen[p.Name()] = i + 1
		result.Persons = append(result.Persons, p)
	}

	log.Info(log.CatImport, "Read workbook", "sheet", sheet, "persons", len(result.Persons), "rejected", len(result.Rejected))
	return result, nil
}

func parseRow(row []string) (*domain.Person, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	name, err := domain.NewName(cell(0))
	if err != nil {
		return nil, err
	}
	email, err := domain.NewEmail(cell(1))
	if err != nil {
		return nil, err
	}
	handle, err := domain.NewTelegramHandle(cell(2))
	if err != nil {
		return nil, err
	}
	var groups []domain.ModTutGroup
	for _, tok := range strings.FieldsFunc(cell(3), func(r rune) bool { return r == ',' || r == ' ' || r == ';' }) {
		g, err := domain.ParseModTutGroup(strings.ToUpper(tok))
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return domain.NewPerson(name, email, handle, groups...), nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Write writes persons as a single-sheet workbook to w. Pin status is not exported.
func Write(w io.Writer, persons []*domain.Person) error {
	f := excelize.NewFile()
	defer closeWorkbook(f)

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, p := range persons {
		groups := make([]string, 0, len(p.Groups()))
		for _, g := range p.Groups() {
			groups = append(groups, g.String())
		}
		row := []any{p.Name().String(), p.Email().String(), p.Handle().String(), strings.Join(groups, ", ")}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteFile writes persons to a workbook at path, replacing any existing file.
func WriteFile(path string, persons []*domain.Person) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create workbook: %w", err)
	}
	if err := Write(out, persons); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func closeWorkbook(f *excelize.File) {
	if err := f.Close(); err != nil {
		log.ErrorErr(log.CatImport, "Error closing workbook", err)
	}
}
