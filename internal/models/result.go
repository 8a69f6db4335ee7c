package models

// SearchResult is a single backend hit. Lower Score means more relevant.
type SearchResult struct {
	DocumentID  string  `json:"document_id"`
	Title       string  `json:"title"`
	Score       float64 `json:"score"`
	Highlighted string  `json:"highlighted"`
	Snippet     string  `json:"snippet"`
	Rank        int     `json:"rank"`
}

// ExpansionPlan is everything derived from a raw query before it reaches the backend.
type ExpansionPlan struct {
	Query    string   `json:"query"`
	Strategy Strategy `json:"strategy"`
	Terms    []Term   `json:"terms"`
	Expanded []string `json:"expanded"`
	// Match is the string sent to the backend: the serialized expression, or the raw
	// query when Fallback is set.
	Match    string `json:"match"`
	Fallback bool   `json:"fallback"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Plan      *ExpansionPlan  `json:"plan"`
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	QueryTime int64           `json:"query_time_ms"`
	Backend   string          `json:"backend"`
	// Rejected is set when the backend refused the built expression; Results is then empty.
	Rejected     bool   `json:"rejected,omitempty"`
	RejectReason string `json:"reject_reason,omitempty"`
}

// ComparisonReport compares hit counts for a raw query and its comprehensive expansion.
type ComparisonReport struct {
	Query            string  `json:"query"`
	ExpandedQuery    string  `json:"expanded_query"`
	OriginalHits     int     `json:"original_hits"`
	ExpandedHits     int     `json:"expanded_hits"`
	Improvement      int     `json:"improvement"`
	ImprovementRatio float64 `json:"improvement_ratio"`
}

// NewComparisonReport computes improvement figures. The ratio divides by max(1, original).
func NewComparisonReport(query, expandedQuery string, original, expanded int) *ComparisonReport {
	improvement := expanded - original
	denominator := original
	if denominator < 1 {
		denominator = 1
	}
	return &ComparisonReport{
		Query:            query,
		ExpandedQuery:    expandedQuery,
		OriginalHits:     original,
		ExpandedHits:     expanded,
		Improvement:      improvement,
		ImprovementRatio: float64(improvement) / float64(denominator),
	}
}
