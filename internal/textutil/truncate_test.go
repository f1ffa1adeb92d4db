package textutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		budget int
		want   string
	}{
		{
			name:   "Under budget passes through",
			input:  "short",
			budget: 100,
			want:   "short",
		},
		{
			name:   "Exactly at budget passes through",
			input:  "12345",
			budget: 5,
			want:   "12345",
		},
		{
			name:   "Over budget is cut and annotated",
			input:  "1234567890",
			budget: 4,
			want:   "1234\n[... truncated 6 characters ...]",
		},
		{
			name:   "Zero budget disables truncation",
			input:  "anything goes",
			budget: 0,
			want:   "anything goes",
		},
		{
			name:   "Negative budget disables truncation",
			input:  "anything goes",
			budget: -1,
			want:   "anything goes",
		},
		{
			name:   "Empty input",
			input:  "",
			budget: 10,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.input, tt.budget))
		})
	}
}

func TestTruncateKeepsPrefix(t *testing.T) {
	input := strings.Repeat("x", 200)
	got := Truncate(input, 50)

	assert.True(t, strings.HasPrefix(got, input[:50]))
	assert.Contains(t, got, "truncated 150 characters")
}
