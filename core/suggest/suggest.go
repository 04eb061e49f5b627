// Package suggest filters typed records into autocomplete options.
package suggest

import "strings"

const DefaultLimit = 10

// Option is one autocomplete entry.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Filter projects items into options and keeps those whose label contains query, case-insensitively.
// Input order is kept. A blank query matches everything; limit <= 0 means DefaultLimit.
func Filter[T any](items []T, query string, limit int, project func(T) Option) []Option {
	if limit <= 0 {
		limit = DefaultLimit
	}
	query = strings.ToLower(strings.TrimSpace(query))

	opts := make([]Option, 0, limit)
	for _, item := range items {
		if len(opts) == limit {
			break
		}
		opt := project(item)
		if query == "" || strings.Contains(strings.ToLower(opt.Label), query) {
			opts = append(opts, opt)
		}
	}
	return opts
}
