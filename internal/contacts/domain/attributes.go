package domain

import (
	"regexp"
	"strings"
)

// Constraint messages shown to users when parsing fails.
const (
	NameConstraints = "Names should only contain alphanumeric characters and spaces, and it should not be blank"

	EmailConstraints = "Emails should be of the format local-part@domain: the local-part may contain " +
		"alphanumerics and + _ . - but may not start or end with a special character; the domain is made of " +
		"labels separated by periods, each starting and ending with an alphanumeric character, and the last " +
		"label must be at least 2 characters long"

	HandleConstraints = "Telegram handles should start with @ followed by 5 to 32 characters: a letter, " +
		"then letters, digits or underscores"

	ModTutGroupConstraints = "Module - Tutorial Group should only contain alphanumeric characters with a dash in between"
)

var (
	nameRegex   = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 ]*$`)
	emailRegex  = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9+_.-]*[A-Za-z0-9])?@([A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?\.)*[A-Za-z0-9][A-Za-z0-9-]*[A-Za-z0-9]$`)
	handleRegex = regexp.MustCompile(`^@[A-Za-z][A-Za-z0-9_]{4,31}$`)
	groupRegex  = regexp.MustCompile(`^([A-Za-z0-9]+)-([A-Za-z0-9]+)$`)
)

// Name identifies a person. Two persons with equal names are the same person.
type Name struct {
	value string
}

// NewName validates and normalizes a name: surrounding whitespace is trimmed and inner runs of
// spaces collapse to one. Comparison stays case-sensitive.
func NewName(s string) (Name, error) {
	normalized := strings.Join(strings.Fields(s), " ")
	if !nameRegex.MatchString(normalized) {
		return Name{}, &ValidationError{Field: "name", Value: s, Constraint: NameConstraints}
	}
	return Name{value: normalized}, nil
}

func (n Name) String() string { return n.value }

// Email is a person's contact address, compared case-insensitively.
type Email struct {
	value string
}

// NewEmail validates an address and lowercases it.
func NewEmail(s string) (Email, error) {
	trimmed := strings.TrimSpace(s)
	if !emailRegex.MatchString(trimmed) {
		return Email{}, &ValidationError{Field: "email", Value: s, Constraint: EmailConstraints}
	}
	return Email{value: strings.ToLower(trimmed)}, nil
}

func (e Email) String() string { return e.value }

// TelegramHandle is a person's Telegram username including the leading @.
type TelegramHandle struct {
	value string
}

// NewTelegramHandle validates a handle and lowercases it; Telegram usernames are case-insensitive.
func NewTelegramHandle(s string) (TelegramHandle, error) {
	trimmed := strings.TrimSpace(s)
	if !handleRegex.MatchString(trimmed) {
		return TelegramHandle{}, &ValidationError{Field: "telegram handle", Value: s, Constraint: HandleConstraints}
	}
	return TelegramHandle{value: strings.ToLower(trimmed)}, nil
}

func (h TelegramHandle) String() string { return h.value }

// ModTutGroup is a module paired with one of its tutorial groups, e.g. CS2103-T01.
// It is comparable and usable as a map key; equality is by the pair.
type ModTutGroup struct {
	module   string
	tutorial string
}

// ParseModTutGroup parses a single module-tutorial token. The token is kept as given, so
// ParseModTutGroup(s).String() == s for every valid s.
func ParseModTutGroup(s string) (ModTutGroup, error) {
	m := groupRegex.FindStringSubmatch(s)
	if m == nil {
		return ModTutGroup{}, &ValidationError{Field: "module-tutorial group", Value: s, Constraint: ModTutGroupConstraints}
	}
	return ModTutGroup{module: m[1], tutorial: m[2]}, nil
}

// IsValidModule reports whether s can be the module half of a ModTutGroup.
func IsValidModule(s string) bool {
	return s != "" && groupRegex.MatchString(s+"-X")
}

// Module returns the module component.
func (g ModTutGroup) Module() string { return g.module }

// Tutorial returns the tutorial group component.
func (g ModTutGroup) Tutorial() string { return g.tutorial }

func (g ModTutGroup) String() string { return g.module + "-" + g.tutorial }

// compareGroups orders groups by module, then tutorial.
func compareGroups(a, b ModTutGroup) int {
	if c := strings.Compare(a.module, b.module); c != 0 {
		return c
	}
	return strings.Compare(a.tutorial, b.tutorial)
}
