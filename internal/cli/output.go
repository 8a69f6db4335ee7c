// Package cli renders search, expansion and comparison results for the command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints one line per result.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const rule = "─────────────────────────────────────────────────────────"

// ParseFormat validates a format name. The empty string means text.
func ParseFormat(name string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return OutputText, nil
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, compact or json)", name)
	}
}

// WriteSearchResults writes a search response to w in the given format.
// Unknown formats are treated as text.
func WriteSearchResults(w io.Writer, resp *models.SearchResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, resp)
	case OutputCompact:
		for _, r := range resp.Results {
			fmt.Fprintf(w, "%d\t%s\t%.4f\t%s\n", r.Rank, r.DocumentID, r.Score, r.Title)
		}
		return nil
	default:
		writeSearchText(w, resp)
		return nil
	}
}

func writeSearchText(w io.Writer, resp *models.SearchResponse) {
	if resp.Plan != nil {
		fmt.Fprintf(w, "\nStrategy: %s\n", resp.Plan.Strategy)
		fmt.Fprintf(w, "Query:    %s\n", resp.Plan.Match)
		if resp.Plan.Fallback {
			fmt.Fprintln(w, "(no terms extracted, searched the raw input)")
		}
	}
	if resp.Rejected {
		fmt.Fprintf(w, "Query rejected by %s backend: %s\n", resp.Backend, resp.RejectReason)
		return
	}
	fmt.Fprintf(w, "Found %d results in %dms (%s)\n\n", resp.Total, resp.QueryTime, resp.Backend)
	for _, r := range resp.Results {
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "Rank: %d | Score: %.4f | ID: %s\n", r.Rank, r.Score, r.DocumentID)
		if r.Highlighted != "" {
			fmt.Fprintf(w, "Title: %s\n", r.Highlighted)
		} else if r.Title != "" {
			fmt.Fprintf(w, "Title: %s\n", r.Title)
		}
		if r.Snippet != "" {
			fmt.Fprintf(w, "\n%s\n", utils.Truncate(r.Snippet, 200))
		}
		fmt.Fprintln(w)
	}
}

// WriteExpansion writes an expansion plan to w.
func WriteExpansion(w io.Writer, plan *models.ExpansionPlan, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, plan)
	case OutputCompact:
		fmt.Fprintln(w, plan.Match)
		return nil
	default:
		fmt.Fprintf(w, "Input:    %s\n", plan.Query)
		fmt.Fprintf(w, "Strategy: %s\n", plan.Strategy)
		fmt.Fprintf(w, "Terms:    %s\n", strings.Join(models.TermTexts(plan.Terms), ", "))
		fmt.Fprintf(w, "Expanded: %s\n", strings.Join(plan.Expanded, ", "))
		if plan.Fallback {
			fmt.Fprintln(w, "Fallback: raw input is searched as-is")
		}
		fmt.Fprintf(w, "Match:    %s\n", plan.Match)
		return nil
	}
}

// WriteComparison writes a hit-count comparison report to w.
func WriteComparison(w io.Writer, report *models.ComparisonReport, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, report)
	case OutputCompact:
		fmt.Fprintf(w, "%d\t%d\t%+d\t%.1f%%\t%s\n", report.OriginalHits, report.ExpandedHits,
			report.Improvement, report.ImprovementRatio*100, report.Query)
		return nil
	default:
		fmt.Fprintf(w, "Query:         %s\n", report.Query)
		fmt.Fprintf(w, "Expanded:      %s\n", report.ExpandedQuery)
		fmt.Fprintf(w, "Original hits: %d\n", report.OriginalHits)
		fmt.Fprintf(w, "Expanded hits: %d\n", report.ExpandedHits)
		fmt.Fprintf(w, "Improvement:   %+d (%.1f%%)\n", report.Improvement, report.ImprovementRatio*100)
		return nil
	}
}

// WriteStrategyComparison writes one search response per strategy for the same query.
func WriteStrategyComparison(w io.Writer, query string, resps []*models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, map[string]interface{}{"query": query, "strategies": resps})
	}
	fmt.Fprintf(w, "\n=== %s ===\n", query)
	for _, resp := range resps {
		if resp.Plan == nil {
			continue
		}
		if format == OutputCompact {
			fmt.Fprintf(w, "%-14s %3d  %s\n", resp.Plan.Strategy, resp.Total, resp.Plan.Match)
			continue
		}
		fmt.Fprintf(w, "\n[%s] %d hits\n", resp.Plan.Strategy, resp.Total)
		fmt.Fprintf(w, "  %s\n", resp.Plan.Match)
		for _, r := range resp.Results {
			fmt.Fprintf(w, "  %d. %s (%s)\n", r.Rank, r.Title, r.DocumentID)
		}
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
