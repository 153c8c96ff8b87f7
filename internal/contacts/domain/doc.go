// Package domain implements the pure domain layer for the contact book.
//
// This package follows the same layering as the rest of connects:
//   - Contains only pure Go code with standard library imports (no external dependencies)
//   - Defines value objects (Name, Email, TelegramHandle, ModTutGroup) and the Person aggregate
//   - Implements the ordered, identity-unique person list and the module index derived from it
//   - Defines the Repository port; it has no knowledge of files, databases or terminals
//
// # Core Types
//
// Person is an immutable record. Two persons are the same person (IsSamePerson) when their
// names are equal; they are equal (Equals) when every field, including the pin flag, matches.
// Edits always produce a new Person.
//
// UniquePersonList keeps persons in display order. Pinned persons form a contiguous prefix;
// Sort only reorders the unpinned suffix.
//
// ModuleIndex maps module -> tutorial -> number of persons holding that ModTutGroup. It is
// derived state: Rebuild over the person list always restores it.
//
// Book composes the list and the index and keeps them consistent. Cascade removes a module
// or a single module-tutorial group from the index and strips it from every person.
//
// # Concurrency
//
// Nothing in this package is safe for concurrent mutation. The application layer serializes
// all writers behind a single lock.
package domain
