package testutil

import (
	"context"
	"slices"
	"strconv"
	"sync"

	"github.com/zjrosen/connects/internal/contacts/domain"
)

// MemoryRepository is a domain.Repository held in memory. Every saved snapshot is kept.
type MemoryRepository struct {
	mu        sync.Mutex
	snapshots []*domain.Snapshot
	saveErr   error
	loadErr   error
	closed    bool
}

var _ domain.Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Seed stores persons as the latest snapshot without going through Save.
func (r *MemoryRepository) Seed(persons []*domain.Person) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.append(&domain.Snapshot{Persons: slices.Clone(persons)})
}

// FailSaves makes every Save return err until it is called again with nil.
func (r *MemoryRepository) FailSaves(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveErr = err
}

// FailLoads makes every Load return err until it is called again with nil.
func (r *MemoryRepository) FailLoads(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadErr = err
}

// Load returns the latest snapshot.
func (r *MemoryRepository) Load(_ context.Context) (*domain.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, &domain.PersistenceError{Op: "load", Err: r.loadErr}
	}
	if len(r.snapshots) == 0 {
		return nil, &domain.PersistenceError{Op: "load", Err: domain.ErrSnapshotNotFound}
	}
	latest := *r.snapshots[len(r.snapshots)-1]
	latest.Persons = slices.Clone(latest.Persons)
	return &latest, nil
}

// Save appends snapshot and assigns its ID.
func (r *MemoryRepository) Save(_ context.Context, snapshot *domain.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return &domain.PersistenceError{Op: "save", Err: r.saveErr}
	}
	stored := *snapshot
	stored.Persons = slices.Clone(snapshot.Persons)
	r.append(&stored)
	snapshot.ID = stored.ID
	return nil
}

// Close marks the repository closed.
func (r *MemoryRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Saves returns how many snapshots were stored, seeds included.
func (r *MemoryRepository) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

// Latest returns the persons of the latest snapshot, or nil.
func (r *MemoryRepository) Latest() []*domain.Person {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return nil
	}
	return slices.Clone(r.snapshots[len(r.snapshots)-1].Persons)
}

// Closed reports whether Close was called.
func (r *MemoryRepository) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *MemoryRepository) append(snapshot *domain.Snapshot) {
	snapshot.ID = "mem-" + strconv.Itoa(len(r.snapshots)+1)
	r.snapshots = append(r.snapshots, snapshot)
}
