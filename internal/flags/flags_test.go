package flags

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_Enabled(t *testing.T) {
	tests := []struct {
		name     string
		registry *Registry
		flag     string
		expected bool
	}{
		{
			name:     "default-on flag stays on when unset",
			registry: New(nil),
			flag:     FlagSnapshotHistory,
			expected: true,
		},
		{
			name:     "default-off flag stays off when unset",
			registry: New(map[string]bool{}),
			flag:     FlagFullIndexRebuild,
			expected: false,
		},
		{
			name:     "config overrides default",
			registry: New(map[string]bool{FlagSnapshotHistory: false, FlagFullIndexRebuild: true}),
			flag:     FlagFullIndexRebuild,
			expected: true,
		},
		{
			name:     "config disables default-on flag",
			registry: New(map[string]bool{FlagSnapshotHistory: false}),
			flag:     FlagSnapshotHistory,
			expected: false,
		},
		{
			name:     "unknown flag returns false",
			registry: New(map[string]bool{"feature-a": true}),
			flag:     "unknown-flag",
			expected: false,
		},
		{
			name:     "nil registry returns false",
			registry: nil,
			flag:     FlagSnapshotHistory,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.registry.Enabled(tt.flag))
		})
	}
}

func TestRegistry_All(t *testing.T) {
	tests := []struct {
		name     string
		registry *Registry
		expected map[string]bool
	}{
		{
			name:     "defaults only",
			registry: New(nil),
			expected: Defaults(),
		},
		{
			name:     "extra flags are kept",
			registry: New(map[string]bool{"experimental": true}),
			expected: map[string]bool{FlagFullIndexRebuild: false, FlagSnapshotHistory: true, "experimental": true},
		},
		{
			name:     "returns empty map for nil registry",
			registry: nil,
			expected: map[string]bool{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.registry.All())
		})
	}
}

func TestRegistry_All_ReturnsDefensiveCopy(t *testing.T) {
	r := New(map[string]bool{FlagFullIndexRebuild: true})

	copy := r.All()
	copy[FlagFullIndexRebuild] = false
	copy["new-flag"] = true

	require.True(t, r.Enabled(FlagFullIndexRebuild), "registry should not be affected by copy mutation")
	require.False(t, r.Enabled("new-flag"), "registry should not have new flags from copy mutation")
}

func TestNew_DoesNotAliasInput(t *testing.T) {
	input := map[string]bool{FlagFullIndexRebuild: true}
	r := New(input)
	input[FlagFullIndexRebuild] = false
	require.True(t, r.Enabled(FlagFullIndexRebuild))
}
