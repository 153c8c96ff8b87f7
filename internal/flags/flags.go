// Package flags holds the feature flags read from the flags section of the config.
// Unknown flags are off.
package flags

import (
	"maps"

	"github.com/zjrosen/connects/internal/log"
)

const (
	// FlagFullIndexRebuild makes the book recompute the module index from scratch after every
	// mutation instead of applying per-person deltas.
	FlagFullIndexRebuild = "full-index-rebuild"

	// FlagSnapshotHistory keeps older snapshots in the SQLite store. When disabled only the
	// latest snapshot survives a save.
	FlagSnapshotHistory = "snapshot-history"
)

// Defaults returns the value of every known flag when the config leaves it unset.
func Defaults() map[string]bool {
	return map[string]bool{
		FlagFullIndexRebuild: false,
		FlagSnapshotHistory:  true,
	}
}

// Registry holds feature flag state. It is read-only after New.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from the config map layered over Defaults.
func New(flags map[string]bool) *Registry {
	merged := Defaults()
	maps.Copy(merged, flags)
	r := &Registry{flags: merged}
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(merged), "flags", r.All())
	return r
}

// Enabled reports whether the named flag is on. Unknown flags and a nil registry report false.
func (r *Registry) Enabled(name string) bool {
	if r == nil || r.flags == nil {
		return false
	}
	value, exists := r.flags[name]
	if !exists {
		log.Debug(log.CatConfig, "Unknown flag accessed", "flag", name, "result", false)
		return false
	}
	return value
}

// All returns a copy of all flags.
func (r *Registry) All() map[string]bool {
	if r == nil || r.flags == nil {
		return make(map[string]bool)
	}
	result := make(map[string]bool, len(r.flags))
	maps.Copy(result, r.flags)
	return result
}
