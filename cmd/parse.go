package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/zjrosen/connects/internal/contacts/domain"
)

// ErrInvalidIndex is returned when a person index is not a positive integer.
var ErrInvalidIndex = errors.New("the person index must be a positive integer")

// parseIndex turns a 1-based index argument into a zero-based position.
func parseIndex(arg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidIndex, arg)
	}
	return n - 1, nil
}

// parseGroup parses one module-tutorial token, uppercasing it first.
func parseGroup(token string) (domain.ModTutGroup, error) {
	return domain.ParseModTutGroup(strings.ToUpper(strings.TrimSpace(token)))
}

// parseGroups parses every token of values. A value may hold several tokens separated by
// commas or spaces.
func parseGroups(values []string) ([]domain.ModTutGroup, error) {
	var groups []domain.ModTutGroup
	for _, v := range values {
		for _, tok := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' }) {
			g, err := parseGroup(tok)
			if err != nil {
				return nil, err
			}
			groups = append(groups, g)
		}
	}
	return groups, nil
}

// parseModule validates a module name for delmod: one word, uppercased.
func parseModule(arg string) (string, error) {
	module := strings.ToUpper(strings.TrimSpace(arg))
	if !domain.IsValidModule(module) {
		return "", &domain.ValidationError{Field: "module", Value: arg,
			Constraint: "Module should be a single alphanumeric word, e.g. CS2103"}
	}
	return module, nil
}

// personFields holds the raw person flags shared by add and edit.
type personFields struct {
	name   string
	email  string
	handle string
	groups []string
}

// build validates every field into a new person.
func (f personFields) build() (*domain.Person, error) {
	name, err := domain.NewName(f.name)
	if err != nil {
		return nil, err
	}
	email, err := domain.NewEmail(f.email)
	if err != nil {
		return nil, err
	}
	handle, err := domain.NewTelegramHandle(f.handle)
	if err != nil {
		return nil, err
	}
	groups, err := parseGroups(f.groups)
	if err != nil {
		return nil, err
	}
	return domain.NewPerson(name, email, handle, groups...), nil
}
