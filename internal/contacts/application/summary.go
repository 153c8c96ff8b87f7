package application

import (
	"context"
	"maps"
	"slices"

	"github.com/zjrosen/connects/internal/contacts/domain"
)

// Summary lists the indexed modules in alphabetical order.
type Summary struct {
	Modules []ModuleSummary
}

// ModuleSummary is one module with its tutorial groups.
type ModuleSummary struct {
	Module    string
	Tutorials []TutorialCount
	Persons   int // sum of the tutorial counts; a person in two tutorials counts twice
}

// TutorialCount is the number of persons in one module-tutorial group.
type TutorialCount struct {
	Tutorial string
	Count    int
}

// Len returns the number of modules.
func (s Summary) Len() int { return len(s.Modules) }

// Summary returns the module summary, computing it from the index when the cached copy
// has expired or been invalidated by a mutation.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summaries.Get(ctx, summaryKey, s.book.Index(), s.summaryTTL)
}

func computeSummary(_ context.Context, index domain.IndexView) (Summary, error) {
	var summary Summary
	for _, module := range index.Modules() {
		ms := ModuleSummary{Module: module}
		tutorials := index.Tutorials(module)
		for _, tutorial := range slices.Sorted(maps.Keys(tutorials)) {
			count := tutorials[tutorial]
			ms.Tutorials = append(ms.Tutorials, TutorialCount{Tutorial: tutorial, Count: count})
			ms.Persons += count
		}
		summary.Modules = append(summary.Modules, ms)
	}
	return summary, nil
}
