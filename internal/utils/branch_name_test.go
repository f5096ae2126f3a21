package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeBranchName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple name passes through",
			input:    "feature",
			expected: "feature",
		},
		{
			name:     "spaces replaced with hyphens",
			input:    "my feature branch",
			expected: "my-feature-branch",
		},
		{
			name:     "special characters replaced",
			input:    "feature!@#$%^&*()",
			expected: "feature",
		},
		{
			name:     "slashes and dots preserved",
			input:    "team/feature.v1",
			expected: "team/feature.v1",
		},
		{
			name:     "leading and trailing separators removed",
			input:    "/.feature///",
			expected: "feature",
		},
		{
			name:     "double dots are not allowed",
			input:    "a..b",
			expected: "a-b",
		},
		{
			name:     "components can not start with a dot",
			input:    "team/.hidden",
			expected: "team/hidden",
		},
		{
			name:     "lock suffix dropped",
			input:    "feature.lock",
			expected: "feature",
		},
		{
			name:     "consecutive hyphens collapsed",
			input:    "my -- feature",
			expected: "my-feature",
		},
		{
			name:     "nothing usable",
			input:    "!!!",
			expected: "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.expected, SanitizeBranchName(tt.input))
		})
	}
}

func TestSanitizeBranchNameLength(t *testing.T) {
	t.Parallel()

	name := SanitizeBranchName(strings.Repeat("a", 300))
	require.Len(t, name, MaxBranchNameByteLength)

	name = SanitizeBranchName(strings.Repeat("a", MaxBranchNameByteLength-1) + "-bbb")
	require.Equal(t, strings.Repeat("a", MaxBranchNameByteLength-1), name)
}
