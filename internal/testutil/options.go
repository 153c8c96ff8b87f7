package testutil

// personData holds the raw fields of a person before validation.
type personData struct {
	name   string
	email  string
	handle string
	groups []string
	pinned bool
}

// defaultPerson derives an email and a Telegram handle from name so every fixture is valid.
func defaultPerson(name string) personData {
	slug := slugOf(name)
	return personData{
		name:   name,
		email:  slug + "@example.com",
		handle: "@tg" + slug + "xx",
	}
}

// PersonOption configures a person during builder setup.
type PersonOption func(*personData)

// Email sets the email address.
func Email(email string) PersonOption {
	return func(p *personData) { p.email = email }
}

// Handle sets the Telegram handle.
func Handle(handle string) PersonOption {
	return func(p *personData) { p.handle = handle }
}

// Groups adds module-tutorial group tokens such as "CS2103-T01".
func Groups(groups ...string) PersonOption {
	return func(p *personData) { p.groups = append(p.groups, groups...) }
}

// Pinned marks the person as pinned.
func Pinned() PersonOption {
	return func(p *personData) { p.pinned = true }
}
