package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "Flat output text",
			body: `{"output_text": "Consider bounding the retry loop."}`,
			want: "Consider bounding the retry loop.",
		},
		{
			name: "Flat output text with surrounding whitespace",
			body: `{"output_text": "  trimmed  \n"}`,
			want: "trimmed",
		},
		{
			name: "Structured output chunks",
			body: `{"output": [{"type": "message", "content": [
				{"type": "output_text", "text": "Part one. "},
				{"type": "output_text", "text": "Part two."}
			]}]}`,
			want: "Part one. Part two.",
		},
		{
			name: "Structured output skips non-text chunks",
			body: `{"output": [{"type": "message", "content": [
				{"type": "reasoning", "text": "internal"},
				{"type": "output_text", "text": "visible"}
			]}]}`,
			want: "visible",
		},
		{
			name: "Structured output skips non-message items",
			body: `{"output": [
				{"type": "tool_call", "content": [{"type": "output_text", "text": "hidden"}]},
				{"type": "message", "content": [{"type": "output_text", "text": "shown"}]}
			]}`,
			want: "shown",
		},
		{
			name: "Flat shape wins when both are present",
			body: `{"output_text": "flat", "output": [{"type": "message", "content": [{"type": "output_text", "text": "chunked"}]}]}`,
			want: "flat",
		},
		{
			name: "Untyped items and chunks still count",
			body: `{"output": [{"content": [{"text": "untyped"}]}]}`,
			want: "untyped",
		},
		{
			name: "Empty response falls back to the default",
			body: `{}`,
			want: DefaultReviewText,
		},
		{
			name: "Whitespace-only text falls back to the default",
			body: `{"output_text": "   "}`,
			want: DefaultReviewText,
		},
		{
			name: "Unrecognized shape falls back to the default",
			body: `{"choices": [{"message": {"content": "wrong API"}}]}`,
			want: DefaultReviewText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp completionResponse
			require.NoError(t, json.Unmarshal([]byte(tt.body), &resp))
			assert.Equal(t, tt.want, extractText(&resp))
		})
	}
}
