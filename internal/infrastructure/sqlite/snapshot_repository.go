package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/connects/internal/contacts/domain"
	"github.com/zjrosen/connects/internal/log"
)

// Option configures a SnapshotRepository.
type Option func(*SnapshotRepository)

// WithHistory keeps the newest n snapshots after every save. Values below 1 keep one.
func WithHistory(n int) Option {
	return func(r *SnapshotRepository) {
		r.history = max(n, 1)
	}
}

// SnapshotRepository implements domain.Repository. Every Save inserts a new snapshot and
// prunes the oldest ones beyond the history limit; Load returns the newest.
type SnapshotRepository struct {
	db      *sql.DB
	path    string
	history int
}

var _ domain.Repository = (*SnapshotRepository)(nil)

func newSnapshotRepository(db *sql.DB, path string, opts ...Option) *SnapshotRepository {
	r := &SnapshotRepository{db: db, path: path, history: 1}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load returns the newest snapshot.
func (r *SnapshotRepository) Load(ctx context.Context) (*domain.Snapshot, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, guid, saved_at, person_count FROM snapshots ORDER BY id DESC LIMIT 1`)
	var model SnapshotModel
	err := row.Scan(&model.ID, &model.GUID, &model.SavedAt, &model.PersonCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.loadError(domain.ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, r.loadError(fmt.Errorf("failed to find latest snapshot: %w", err))
	}

	persons, err := r.loadPersons(ctx, model.ID)
	if err != nil {
		return nil, r.loadError(err)
	}
	if len(persons) != model.PersonCount {
		return nil, r.loadError(fmt.Errorf("snapshot %s holds %d persons, expected %d",
			model.GUID, len(persons), model.PersonCount))
	}

	log.Debug(log.CatStore, "Loaded snapshot", "guid", model.GUID, "persons", len(persons))
	return &domain.Snapshot{ID: model.GUID, SavedAt: model.savedAt(), Persons: persons}, nil
}

func (r *SnapshotRepository) loadPersons(ctx context.Context, snapshotID int64) ([]*domain.Person, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT position, name, email, handle, pinned FROM persons
		 WHERE snapshot_id = ? ORDER BY position`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to list persons: %w", err)
	}
	var models []*PersonModel
	byPosition := make(map[int]*PersonModel)
	for rows.Next() {
		var m PersonModel
		if err := rows.Scan(&m.Position, &m.Name, &m.Email, &m.Handle, &m.Pinned); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan person row: %w", err)
		}
		models = append(models, &m)
		byPosition[m.Position] = &m
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("error iterating person rows: %w", err)
	}
	_ = rows.Close()

	groupRows, err := r.db.QueryContext(ctx,
		`SELECT position, module, tutorial FROM person_groups
		 WHERE snapshot_id = ? ORDER BY position, module, tutorial`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer func() { _ = groupRows.Close() }()
	for groupRows.Next() {
		var position int
		var g GroupModel
		if err := groupRows.Scan(&position, &g.Module, &g.Tutorial); err != nil {
			return nil, fmt.Errorf("failed to scan group row: %w", err)
		}
		if m, ok := byPosition[position]; ok {
			m.Groups = append(m.Groups, g)
		}
	}
	if err := groupRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group rows: %w", err)
	}

	persons := make([]*domain.Person, 0, len(models))
	for _, m := range models {
		p, err := m.toDomain()
		if err != nil {
			return nil, err
		}
		persons = append(persons, p)
	}
	return persons, nil
}

// Save inserts snapshot as the newest one and assigns snapshot.ID.
func (r *SnapshotRepository) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	guid := uuid.NewString()
	savedAt := snapshot.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return r.saveError(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (guid, saved_at, person_count) VALUES (?, ?, ?)`,
		guid, savedAt.UnixNano(), len(snapshot.Persons))
	if err != nil {
		return r.saveError(fmt.Errorf("failed to insert snapshot: %w", err))
	}
	snapshotID, err := result.LastInsertId()
	if err != nil {
		return r.saveError(fmt.Errorf("failed to get last insert id: %w", err))
	}

	for i, p := range snapshot.Persons {
		m := toPersonModel(i, p)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO persons (snapshot_id, position, name, email, handle, pinned) VALUES (?, ?, ?, ?, ?, ?)`,
			snapshotID, m.Position, m.Name, m.Email, m.Handle, m.Pinned); err != nil {
			return r.saveError(fmt.Errorf("failed to insert person %q: %w", m.Name, err))
		}
		for _, g := range m.Groups {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO person_groups (snapshot_id, position, module, tutorial) VALUES (?, ?, ?, ?)`,
				snapshotID, m.Position, g.Module, g.Tutorial); err != nil {
				return r.saveError(fmt.Errorf("failed to insert group %s-%s: %w", g.Module, g.Tutorial, err))
			}
		}
	}

	pruned, err := tx.ExecContext(ctx,
		`DELETE FROM snapshots WHERE id NOT IN (SELECT id FROM snapshots ORDER BY id DESC LIMIT ?)`,
		r.history)
	if err != nil {
		return r.saveError(fmt.Errorf("failed to prune snapshots: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return r.saveError(fmt.Errorf("failed to commit snapshot: %w", err))
	}

	snapshot.ID = guid
	snapshot.SavedAt = savedAt
	if n, err := pruned.RowsAffected(); err == nil && n > 0 {
		log.Debug(log.CatStore, "Pruned old snapshots", "count", n, "history", r.history)
	}
	return nil
}

// SnapshotInfo describes a stored snapshot without its persons.
type SnapshotInfo struct {
	ID          string
	SavedAt     time.Time
	PersonCount int
}

// History lists the stored snapshots, newest first.
func (r *SnapshotRepository) History(ctx context.Context) ([]SnapshotInfo, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, guid, saved_at, person_count FROM snapshots ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var infos []SnapshotInfo
	for rows.Next() {
		var m SnapshotModel
		if err := rows.Scan(&m.ID, &m.GUID, &m.SavedAt, &m.PersonCount); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		infos = append(infos, SnapshotInfo{ID: m.GUID, SavedAt: m.savedAt(), PersonCount: m.PersonCount})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}
	return infos, nil
}

// Close is a no-op; the connection is owned by DB.
func (r *SnapshotRepository) Close() error {
	return nil
}

func (r *SnapshotRepository) loadError(err error) error {
	return &domain.PersistenceError{Op: "load", Path: r.path, Err: err}
}

func (r *SnapshotRepository) saveError(err error) error {
	return &domain.PersistenceError{Op: "save", Path: r.path, Err: err}
}
