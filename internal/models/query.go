package models

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest is wrapped by every SearchRequest validation error.
var ErrInvalidRequest = errors.New("invalid search request")

// SearchRequest is a search request as received over the API.
type SearchRequest struct {
	Query    string    `json:"query"`
	Strategy *Strategy `json:"strategy,omitempty"`
	Limit    int       `json:"limit,omitempty"`
	// Column restricts matching to one searchable column ("title" or "content").
	Column string `json:"column,omitempty"`
}

// Validate ensures the request has a query and normalizes limit into [1, maxLimit].
// defaultLimit is used when Limit is unset.
func (r *SearchRequest) Validate(defaultLimit, maxLimit int) error {
	if r.Query == "" {
		return fmt.Errorf("%w: query cannot be empty", ErrInvalidRequest)
	}
	if r.Column != "" && r.Column != "title" && r.Column != "content" {
		return fmt.Errorf("%w: unknown column %q (want title or content)", ErrInvalidRequest, r.Column)
	}
	r.Limit = ClampLimit(r.Limit, defaultLimit, maxLimit)
	return nil
}

// ClampLimit returns limit bounded to [1, maxLimit]; limit <= 0 becomes defaultLimit (10 when
// unset). maxLimit <= 0 means no upper bound.
func ClampLimit(limit, defaultLimit, maxLimit int) int {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return limit
}
