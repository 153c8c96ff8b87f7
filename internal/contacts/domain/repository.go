package domain

import (
	"context"
	"time"
)

// Snapshot is the persisted form of a book: the ordered persons and nothing else.
// The module index is never stored; it is rebuilt on load.
type Snapshot struct {
	ID      string
	SavedAt time.Time
	Persons []*Person
}

// Repository loads and saves snapshots.
//
// Load returns the most recent snapshot. When nothing was ever saved it returns an error
// matching both ErrPersistence and ErrSnapshotNotFound. Malformed data is a PersistenceError.
type Repository interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snapshot *Snapshot) error
	Close() error
}
