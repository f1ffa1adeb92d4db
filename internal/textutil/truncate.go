// Package textutil provides budgeted text truncation for prompt assembly and
// posted comments.
package textutil

import "fmt"

// Truncate cuts s to at most budget characters. Input at or under the budget
// passes through unchanged. Anything beyond the budget is cut and annotated
// with the count of omitted characters, never silently dropped.
func Truncate(s string, budget int) string {
	if budget <= 0 || len(s) <= budget {
		return s
	}
	return s[:budget] + fmt.Sprintf("\n[... truncated %d characters ...]", len(s)-budget)
}
