// Package application exposes the contact book to commands and the viewer.
//
// Service serializes every operation behind one lock, persists a snapshot after each
// successful mutation and publishes the resulting state to subscribers.
package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/connects/internal/cachemanager"
	"github.com/zjrosen/connects/internal/contacts/domain"
	"github.com/zjrosen/connects/internal/flags"
	"github.com/zjrosen/connects/internal/log"
	"github.com/zjrosen/connects/internal/pubsub"
	"github.com/zjrosen/connects/internal/tracing"
)

const summaryKey = "modules"

// SortKey selects the comparator for Sort.
type SortKey string

const (
	SortByName  SortKey = "name"
	SortByEmail SortKey = "email"
)

// ErrUnknownSortKey is returned by Sort for keys other than SortByName and SortByEmail.
var ErrUnknownSortKey = errors.New("unknown sort key")

// Snapshot is the end-of-operation state handed to subscribers.
type Snapshot struct {
	Persons []*domain.Person
	Pinned  int
	Modules map[string]map[string]int
}

// Service is the contact book facade used by commands and the viewer.
type Service struct {
	mu      sync.RWMutex
	book    *domain.Book
	cascade *domain.Cascade
	repo    domain.Repository
	broker  *pubsub.Broker[Snapshot]

	// publishMu is taken before mu is released and held until the snapshot is published.
	publishMu sync.Mutex

	summaries  *cachemanager.ReadThroughCache[string, Summary, domain.IndexView]
	summaryTTL time.Duration

	tracer  trace.Tracer
	flags   *flags.Registry
	backend string
}

// Option configures a Service.
type Option func(*Service)

// WithTracer traces every operation with tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) { s.tracer = tracer }
}

// WithFlags applies feature flags.
func WithFlags(registry *flags.Registry) Option {
	return func(s *Service) { s.flags = registry }
}

// WithSummaryTTL sets how long a computed module summary stays cached. Zero disables caching.
func WithSummaryTTL(ttl time.Duration) Option {
	return func(s *Service) { s.summaryTTL = ttl }
}

// WithBackendName labels store spans and log lines.
func WithBackendName(name string) Option {
	return func(s *Service) { s.backend = name }
}

// NewService creates a service over repo. Call Load before using it.
func NewService(repo domain.Repository, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		broker:     pubsub.NewBroker[Snapshot](pubsub.WithReplay()),
		summaryTTL: cachemanager.DefaultExpiration,
	}
	for _, opt := range opts {
		opt(s)
	}

	var bookOpts []domain.BookOption
	if s.flags.Enabled(flags.FlagFullIndexRebuild) {
		bookOpts = append(bookOpts, domain.WithFullRebuild())
	}
	s.book = domain.NewBook(bookOpts...)
	s.cascade = domain.NewCascade(s.book)

	manager := cachemanager.NewInMemoryCacheManager[string, Summary]("module-summary",
		cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	s.summaries = cachemanager.NewReadThroughCache[string, Summary, domain.IndexView](
		manager, computeSummary, s.summaryTTL <= 0)
	return s
}

// Load replaces the book with the repository's latest snapshot. A repository with no
// snapshot yields an empty book; any other failure leaves the book untouched.
func (s *Service) Load(ctx context.Context) error {
	return tracing.Operation(ctx, s.tracer, "load", func(ctx context.Context) error {
		snapshot, err := s.load(ctx)
		if err != nil {
			return err
		}
		defer s.publishMu.Unlock()
		s.broker.Publish(pubsub.ResetEvent, snapshot)
		return nil
	})
}

// load replaces the book under the write lock. On success it returns with publishMu held.
func (s *Service) load(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var persons []*domain.Person
	err := tracing.Store(ctx, s.tracer, "load", func(ctx context.Context) error {
		snapshot, err := s.repo.Load(ctx)
		if err != nil {
			return err
		}
		persons = snapshot.Persons
		return nil
	}, attribute.String(tracing.AttrStoreBackend, s.backend))

	switch {
	case errors.Is(err, domain.ErrSnapshotNotFound):
		log.Info(log.CatStore, "No saved snapshot, starting empty", "backend", s.backend)
		persons = nil
	case err != nil:
		log.ErrorErr(log.CatStore, "Load failed", err, "backend", s.backend)
		return Snapshot{}, err
	}

	if err := s.book.ResetData(persons); err != nil {
		return Snapshot{}, &domain.PersistenceError{Op: "load", Err: err}
	}
	s.invalidate(ctx)
	log.Info(log.CatStore, "Loaded contact book", "persons", s.book.Len(), "modules", s.book.Index().Counts())
	s.publishMu.Lock()
	return s.snapshotLocked(), nil
}

// Reload is Load under another name; the data file watcher calls it.
func (s *Service) Reload(ctx context.Context) error {
	return s.Load(ctx)
}

// Persons returns the persons in display order.
func (s *Service) Persons() []*domain.Person {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.book.Persons()
}

// Snapshot returns the current state in the form subscribers receive it.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// PersonAt returns the person at zero-based position i.
func (s *Service) PersonAt(i int) (*domain.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.book.Person(i)
	if p == nil {
		return nil, &domain.NotFoundError{Kind: "person", Key: "#" + strconv.Itoa(i+1)}
	}
	return p, nil
}

// HasPerson reports whether a person with p's name exists.
func (s *Service) HasPerson(p *domain.Person) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.book.HasPerson(p)
}

// Add adds p.
func (s *Service) Add(ctx context.Context, p *domain.Person) error {
	return s.mutate(ctx, "add", pubsub.CreatedEvent, func(context.Context) error {
		return s.book.AddPerson(p)
	}, attribute.String(tracing.AttrPersonName, p.Name().String()))
}

// Edit replaces target with edited.
func (s *Service) Edit(ctx context.Context, target, edited *domain.Person) error {
	return s.mutate(ctx, "edit", pubsub.UpdatedEvent, func(context.Context) error {
		return s.book.SetPerson(target, edited)
	}, attribute.String(tracing.AttrPersonName, target.Name().String()))
}

// Delete removes target.
func (s *Service) Delete(ctx context.Context, target *domain.Person) error {
	return s.mutate(ctx, "delete", pubsub.DeletedEvent, func(context.Context) error {
		return s.book.RemovePerson(target)
	}, attribute.String(tracing.AttrPersonName, target.Name().String()))
}

// Pin moves target into the pinned prefix and returns its pinned variant.
func (s *Service) Pin(ctx context.Context, target *domain.Person) (*domain.Person, error) {
	pinned := target.WithPinned(true)
	err := s.mutate(ctx, "pin", pubsub.UpdatedEvent, func(context.Context) error {
		return s.book.Pin(target, pinned)
	}, attribute.String(tracing.AttrPersonName, target.Name().String()))
	if err != nil {
		return nil, err
	}
	return pinned, nil
}

// Unpin moves target out of the pinned prefix and returns its unpinned variant.
func (s *Service) Unpin(ctx context.Context, target *domain.Person) (*domain.Person, error) {
	unpinned := target.WithPinned(false)
	err := s.mutate(ctx, "unpin", pubsub.UpdatedEvent, func(context.Context) error {
		return s.book.Unpin(target, unpinned)
	}, attribute.String(tracing.AttrPersonName, target.Name().String()))
	if err != nil {
		return nil, err
	}
	return unpinned, nil
}

// Sort orders the unpinned persons by key.
func (s *Service) Sort(ctx context.Context, key SortKey) error {
	var cmp func(a, b *domain.Person) int
	switch key {
	case SortByName:
		cmp = domain.CompareByName
	case SortByEmail:
		cmp = domain.CompareByEmail
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSortKey, key)
	}
	return s.mutate(ctx, "sort", pubsub.UpdatedEvent, func(context.Context) error {
		s.book.Sort(cmp)
		return nil
	}, attribute.String("sort.key", string(key)))
}

// Clear removes every person.
func (s *Service) Clear(ctx context.Context) error {
	return s.mutate(ctx, "clear", pubsub.ResetEvent, func(context.Context) error {
		return s.book.ResetData(nil)
	})
}

// DeleteModule removes module from the index and from every person. It returns the removed
// groups and how many persons changed.
func (s *Service) DeleteModule(ctx context.Context, module string) ([]domain.ModTutGroup, int, error) {
	var (
		removed []domain.ModTutGroup
		updated int
	)
	err := s.mutate(ctx, "delete_module", pubsub.DeletedEvent, func(ctx context.Context) error {
		var err error
		removed, updated, err = s.cascade.DeleteModule(module)
		if err == nil {
			tracing.AddEvent(ctx, tracing.EventCascadeApplied, attribute.Int(tracing.AttrUpdatedCount, updated))
			log.Info(log.CatIndex, "Module deleted", "module", module, "groups", len(removed), "persons", updated)
		}
		return err
	}, attribute.String(tracing.AttrModule, module))
	if err != nil {
		return nil, 0, err
	}
	return removed, updated, nil
}

// DeleteModTutGroup removes g from the index and from every person. It returns how many
// persons changed.
func (s *Service) DeleteModTutGroup(ctx context.Context, g domain.ModTutGroup) (int, error) {
	var updated int
	err := s.mutate(ctx, "delete_group", pubsub.DeletedEvent, func(ctx context.Context) error {
		var err error
		updated, err = s.cascade.DeleteModTutGroup(g)
		if err == nil {
			tracing.AddEvent(ctx, tracing.EventCascadeApplied, attribute.Int(tracing.AttrUpdatedCount, updated))
			log.Info(log.CatIndex, "Module-tutorial group deleted", "group", g.String(), "persons", updated)
		}
		return err
	}, attribute.String(tracing.AttrGroup, g.String()))
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// ImportResult reports a bulk import.
type ImportResult struct {
	Added   int
	Skipped []error
}

// Import adds persons in order, skipping those whose name is already taken. All additions
// are saved as one snapshot; nothing is added if the save fails.
func (s *Service) Import(ctx context.Context, persons []*domain.Person) (ImportResult, error) {
	var result ImportResult
	err := s.mutate(ctx, "import", pubsub.ResetEvent, func(context.Context) error {
		for _, p := range persons {
			if err := s.book.AddPerson(p); err != nil {
				result.Skipped = append(result.Skipped, err)
				continue
			}
			result.Added++
		}
		return nil
	}, attribute.Int(tracing.AttrPersonCount, len(persons)))
	if err != nil {
		return ImportResult{}, err
	}
	return result, nil
}

// RebuildIndex recomputes the module index from the person list.
func (s *Service) RebuildIndex(ctx context.Context) error {
	return tracing.Operation(ctx, s.tracer, "rebuild_index", func(ctx context.Context) error {
		s.mu.Lock()
		s.book.RebuildIndex()
		s.invalidate(ctx)
		log.Info(log.CatIndex, "Module index rebuilt", "modules", s.book.Index().Counts())
		s.publishMu.Lock()
		snapshot := s.snapshotLocked()
		s.mu.Unlock()

		defer s.publishMu.Unlock()
		tracing.AddEvent(ctx, tracing.EventIndexRebuilt)
		s.broker.Publish(pubsub.UpdatedEvent, snapshot)
		return nil
	})
}

// Broker returns the display broker. New subscribers receive the latest snapshot first.
func (s *Service) Broker() *pubsub.Broker[Snapshot] {
	return s.broker
}

// Subscribe returns a channel of end-of-operation snapshots.
func (s *Service) Subscribe(ctx context.Context) <-chan pubsub.Event[Snapshot] {
	return s.broker.Subscribe(ctx)
}

// Close stops publishing and closes the repository.
func (s *Service) Close() error {
	s.broker.Close()
	return s.repo.Close()
}

// mutate runs fn under the write lock and saves the result. When fn or the save fails the
// previous persons are restored. The resulting snapshot is published once the book lock is
// released; publishMu keeps publications in mutation order.
func (s *Service) mutate(ctx context.Context, op string, event pubsub.EventType, fn func(ctx context.Context) error, attrs ...attribute.KeyValue) error {
	return tracing.Operation(ctx, s.tracer, op, func(ctx context.Context) error {
		snapshot, err := s.apply(ctx, op, fn)
		if err != nil {
			return err
		}
		defer s.publishMu.Unlock()
		s.broker.Publish(event, snapshot)
		tracing.AddEvent(ctx, tracing.EventSubscribersAlert,
			attribute.Int(tracing.AttrPersonCount, len(snapshot.Persons)),
			attribute.Int(tracing.AttrPinnedCount, snapshot.Pinned),
			attribute.Int("subscribers", s.broker.SubscriberCount()))
		return nil
	}, attrs...)
}

// apply is the locked half of mutate. On success it returns with publishMu held.
func (s *Service) apply(ctx context.Context, op string, fn func(ctx context.Context) error) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.book.Persons()
	if err := fn(ctx); err != nil {
		s.restore(op, previous)
		log.Debug(log.CatBook, "Operation rejected", "op", op, "error", err)
		return Snapshot{}, err
	}

	if err := s.save(ctx); err != nil {
		s.restore(op, previous)
		tracing.AddEvent(ctx, tracing.EventRollback)
		log.ErrorErr(log.CatStore, "Save failed, changes rolled back", err, "op", op, "backend", s.backend)
		return Snapshot{}, err
	}

	s.invalidate(ctx)
	log.Debug(log.CatBook, "Operation applied", "op", op, "persons", s.book.Len(), "pinned", s.book.PinnedCount())
	s.publishMu.Lock()
	return s.snapshotLocked(), nil
}

func (s *Service) restore(op string, previous []*domain.Person) {
	if err := s.book.ResetData(previous); err != nil {
		log.ErrorErr(log.CatBook, "Rollback failed", err, "op", op)
	}
}

func (s *Service) save(ctx context.Context) error {
	snapshot := &domain.Snapshot{
		SavedAt: time.Now(),
		Persons: s.book.Persons(),
	}
	return tracing.Store(ctx, s.tracer, "save", func(ctx context.Context) error {
		if err := s.repo.Save(ctx, snapshot); err != nil {
			return err
		}
		tracing.AddEvent(ctx, tracing.EventSnapshotSaved,
			attribute.String(tracing.AttrSnapshotID, snapshot.ID),
			attribute.Int(tracing.AttrPersonCount, len(snapshot.Persons)))
		return nil
	}, attribute.String(tracing.AttrStoreBackend, s.backend))
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.summaries.Invalidate(ctx); err != nil {
		log.ErrorErr(log.CatCache, "Failed to invalidate module summary", err)
	}
}

func (s *Service) snapshotLocked() Snapshot {
	return Snapshot{
		Persons: s.book.Persons(),
		Pinned:  s.book.PinnedCount(),
		Modules: s.book.Index().Counts(),
	}
}
