package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Person is an immutable contact record.
// All fields are unexported; use NewPerson and the With* methods to derive edited copies.
type Person struct {
	name   Name
	email  Email
	handle TelegramHandle
	groups map[ModTutGroup]struct{}
	pinned bool
}

// NewPerson creates an unpinned person. Duplicate groups collapse into one.
func NewPerson(name Name, email Email, handle TelegramHandle, groups ...ModTutGroup) *Person {
	set := make(map[ModTutGroup]struct{}, len(groups))
	for _, g := range groups {
		set[g] = struct{}{}
	}
	return &Person{name: name, email: email, handle: handle, groups: set}
}

// Name returns the identity name.
func (p *Person) Name() Name { return p.name }

// Email returns the contact email.
func (p *Person) Email() Email { return p.email }

// Handle returns the Telegram handle.
func (p *Person) Handle() TelegramHandle { return p.handle }

// Pinned reports whether the person sits in the pinned prefix.
func (p *Person) Pinned() bool { return p.pinned }

// Groups returns the module-tutorial groups sorted by module then tutorial.
// The returned slice is a fresh copy.
func (p *Person) Groups() []ModTutGroup {
	groups := make([]ModTutGroup, 0, len(p.groups))
	for g := range p.groups {
		groups = append(groups, g)
	}
	slices.SortFunc(groups, compareGroups)
	return groups
}

// HasGroup reports whether the person holds g.
func (p *Person) HasGroup(g ModTutGroup) bool {
	_, ok := p.groups[g]
	return ok
}

// HasModule reports whether the person holds any group of the given module.
func (p *Person) HasModule(module string) bool {
	for g := range p.groups {
		if g.module == module {
			return true
		}
	}
	return false
}

// IsSamePerson is the weak identity check used for uniqueness and lookup: names match.
func (p *Person) IsSamePerson(other *Person) bool {
	if other == p {
		return true
	}
	return other != nil && other.name == p.name
}

// Equals is the strong check used for change detection: every field matches.
func (p *Person) Equals(other *Person) bool {
	if other == p {
		return true
	}
	if other == nil {
		return false
	}
	if p.name != other.name || p.email != other.email || p.handle != other.handle || p.pinned != other.pinned {
		return false
	}
	if len(p.groups) != len(other.groups) {
		return false
	}
	for g := range p.groups {
		if _, ok := other.groups[g]; !ok {
			return false
		}
	}
	return true
}

// WithPinned returns a copy with the given pin status.
func (p *Person) WithPinned(pinned bool) *Person {
	c := p.clone()
	c.pinned = pinned
	return c
}

// WithName returns a copy carrying a new identity name.
func (p *Person) WithName(name Name) *Person {
	c := p.clone()
	c.name = name
	return c
}

// WithEmail returns a copy with a new email.
func (p *Person) WithEmail(email Email) *Person {
	c := p.clone()
	c.email = email
	return c
}

// WithHandle returns a copy with a new Telegram handle.
func (p *Person) WithHandle(handle TelegramHandle) *Person {
	c := p.clone()
	c.handle = handle
	return c
}

// WithGroups returns a copy whose group set is exactly groups.
func (p *Person) WithGroups(groups ...ModTutGroup) *Person {
	c := p.clone()
	c.groups = make(map[ModTutGroup]struct{}, len(groups))
	for _, g := range groups {
		c.groups[g] = struct{}{}
	}
	return c
}

// WithAddedGroups returns a copy holding groups in addition to the current ones.
func (p *Person) WithAddedGroups(groups ...ModTutGroup) *Person {
	c := p.clone()
	for _, g := range groups {
		c.groups[g] = struct{}{}
	}
	return c
}

// WithoutGroups returns a copy with the given groups removed. Stripping groups never changes identity.
func (p *Person) WithoutGroups(groups ...ModTutGroup) *Person {
	c := p.clone()
	for _, g := range groups {
		delete(c.groups, g)
	}
	return c
}

func (p *Person) clone() *Person {
	groups := make(map[ModTutGroup]struct{}, len(p.groups))
	for g := range p.groups {
		groups[g] = struct{}{}
	}
	return &Person{name: p.name, email: p.email, handle: p.handle, groups: groups, pinned: p.pinned}
}

func (p *Person) String() string {
	names := make([]string, 0, len(p.groups))
	for _, g := range p.Groups() {
		names = append(names, g.String())
	}
	return fmt.Sprintf("Person{name=%s, email=%s, telegramHandle=%s, modTutGroups=[%s], pinned=%t}",
		p.name, p.email, p.handle, strings.Join(names, ", "), p.pinned)
}

// CompareByName orders persons by name, case-insensitively, falling back to the exact name.
func CompareByName(a, b *Person) int {
	if c := strings.Compare(strings.ToLower(a.name.value), strings.ToLower(b.name.value)); c != 0 {
		return c
	}
	return strings.Compare(a.name.value, b.name.value)
}

// CompareByEmail orders persons by email address.
func CompareByEmail(a, b *Person) int {
	return strings.Compare(a.email.value, b.email.value)
}
