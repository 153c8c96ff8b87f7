// Package yamlstore keeps the contact book in a single YAML file.
//
// The file is validated against an embedded JSON schema before it is decoded, and every save
// replaces it atomically. Only the latest snapshot is kept.
package yamlstore

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/connects/internal/contacts/domain"
	"github.com/zjrosen/connects/internal/log"
)

const formatVersion = 1

//go:embed snapshot.schema.json
var schemaJSON string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("snapshot.schema.json", schemaJSON)
	})
	return schema, schemaErr
}

// fileModel is the on-disk layout.
type fileModel struct {
	Version int           `yaml:"version"`
	ID      string        `yaml:"id,omitempty"`
	SavedAt string        `yaml:"saved_at,omitempty"`
	Persons []personModel `yaml:"persons"`
}

type personModel struct {
	Name   string   `yaml:"name"`
	Email  string   `yaml:"email"`
	Handle string   `yaml:"handle"`
	Pinned bool     `yaml:"pinned,omitempty"`
	Groups []string `yaml:"groups,omitempty"`
}

// Store implements domain.Repository over one YAML file.
type Store struct {
	path string
}

var _ domain.Repository = (*Store)(nil)

// New returns a store for the file at path. The file is created on the first Save.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the data file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads, validates and decodes the file. A missing or empty file reports
// ErrSnapshotNotFound.
func (s *Store) Load(_ context.Context) (*domain.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && len(bytes.TrimSpace(data)) == 0) {
		return nil, s.loadError(domain.ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, s.loadError(fmt.Errorf("failed to read data file: %w", err))
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, s.loadError(fmt.Errorf("invalid YAML: %w", err))
	}
	sch, err := compiledSchema()
	if err != nil {
		return nil, s.loadError(fmt.Errorf("failed to compile schema: %w", err))
	}
	if err := sch.Validate(raw); err != nil {
		return nil, s.loadError(fmt.Errorf("data file validation failed: %w", err))
	}

	var model fileModel
	if err := yaml.Unmarshal(data, &model); err != nil {
		return nil, s.loadError(fmt.Errorf("failed to decode data file: %w", err))
	}

	persons := make([]*domain.Person, 0, len(model.Persons))
	for i, pm := range model.Persons {
		p, err := pm.toDomain()
		if err != nil {
			return nil, s.loadError(fmt.Errorf("person %d: %w", i+1, err))
		}
		persons = append(persons, p)
	}

	snapshot := &domain.Snapshot{ID: model.ID, Persons: persons}
	if model.SavedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, model.SavedAt); err == nil {
			snapshot.SavedAt = t
		} else {
			log.Warn(log.CatStore, "Ignoring unreadable saved_at", "value", model.SavedAt, "path", s.path)
		}
	}
	log.Debug(log.CatStore, "Loaded data file", "path", s.path, "persons", len(persons))
	return snapshot, nil
}

// Save replaces the file with snapshot and assigns snapshot.ID.
func (s *Store) Save(_ context.Context, snapshot *domain.Snapshot) error {
	if snapshot.SavedAt.IsZero() {
		snapshot.SavedAt = time.Now()
	}
	model := fileModel{
		Version: formatVersion,
		ID:      uuid.NewString(),
		SavedAt: snapshot.SavedAt.Format(time.RFC3339Nano),
		Persons: make([]personModel, 0, len(snapshot.Persons)),
	}
	for _, p := range snapshot.Persons {
		model.Persons = append(model.Persons, toPersonModel(p))
	}

	data, err := yaml.Marshal(&model)
	if err != nil {
		return s.saveError(fmt.Errorf("failed to encode snapshot: %w", err))
	}
	if err := writeAtomic(s.path, data); err != nil {
		return s.saveError(err)
	}
	snapshot.ID = model.ID
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func (s *Store) loadError(err error) error {
	return &domain.PersistenceError{Op: "load", Path: s.path, Err: err}
}

func (s *Store) saveError(err error) error {
	return &domain.PersistenceError{Op: "save", Path: s.path, Err: err}
}

func toPersonModel(p *domain.Person) personModel {
	pm := personModel{
		Name:   p.Name().String(),
		Email:  p.Email().String(),
		Handle: p.Handle().String(),
		Pinned: p.Pinned(),
	}
	for _, g := range p.Groups() {
		pm.Groups = append(pm.Groups, g.String())
	}
	return pm
}

func (pm personModel) toDomain() (*domain.Person, error) {
	name, err := domain.NewName(pm.Name)
	if err != nil {
		return nil, err
	}
	email, err := domain.NewEmail(pm.Email)
	if err != nil {
		return nil, err
	}
	handle, err := domain.NewTelegramHandle(pm.Handle)
	if err != nil {
		return nil, err
	}
	groups := make([]domain.ModTutGroup, 0, len(pm.Groups))
	for _, tok := range pm.Groups {
		g, err := domain.ParseModTutGroup(strings.ToUpper(tok))
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return domain.NewPerson(name, email, handle, groups...).WithPinned(pm.Pinned), nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := temp.Sync(); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to replace data file: %w", err)
	}
	return nil
}
