// Package terms harvests candidate search terms from raw query text by script class.
package terms

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/hyperjump/tansaku/internal/models"
)

// MinTermLength is the minimum number of characters a run needs to become a term.
const MinTermLength = 2

// DefaultParticles are single hiragana characters that commonly join nouns in Japanese.
const DefaultParticles = "とのをにでがはへやも"

var (
	// cjkRun matches hiragana, katakana, and CJK unified ideograph runs.
	cjkRun = regexp.MustCompile(`[\x{3040}-\x{309F}\x{30A0}-\x{30FF}\x{4E00}-\x{9FAF}]+`)
	// latinRun matches ASCII alphanumeric runs starting with a letter.
	latinRun = regexp.MustCompile(`[A-Za-z][A-Za-z0-9]*`)
)

// Extractor scans raw query text and produces an ordered, deduplicated list of terms.
// An Extractor is immutable after construction and safe for concurrent use.
type Extractor struct {
	particles map[rune]bool
	normalize bool
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithParticleBreaks splits CJK runs at any of the given hiragana characters when the
// character sits between two non-hiragana characters, and trims them from segment edges.
// An empty string disables splitting.
func WithParticleBreaks(particles string) ExtractorOption {
	return func(e *Extractor) {
		if particles == "" {
			e.particles = nil
			return
		}
		e.particles = make(map[rune]bool, utf8.RuneCountInString(particles))
		for _, r := range particles {
			e.particles[r] = true
		}
	}
}

// WithNormalization NFKC-normalizes the query before scanning (full-width Latin, half-width kana).
func WithNormalization(enabled bool) ExtractorOption {
	return func(e *Extractor) { e.normalize = enabled }
}

// NewExtractor creates an Extractor. Without options CJK runs are kept whole.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the terms of raw in order of first appearance, CJK runs before Latin runs.
// It returns nil when no run qualifies.
func (e *Extractor) Extract(raw string) []models.Term {
	if e.normalize {
		raw = norm.NFKC.String(raw)
	}
	seen := make(map[string]bool)
	var out []models.Term
	add := func(text string, script models.Script) {
		if utf8.RuneCountInString(text) < MinTermLength || seen[text] {
			return
		}
		seen[text] = true
		out = append(out, models.Term{Text: text, Script: script})
	}

	for _, run := range cjkRun.FindAllString(raw, -1) {
		for _, segment := range e.splitRun(run) {
			add(segment, models.ScriptCJK)
		}
	}
	for _, run := range latinRun.FindAllString(raw, -1) {
		add(run, models.ScriptLatin)
	}
	return out
}

// splitRun breaks a CJK run at particle characters flanked by non-hiragana characters.
func (e *Extractor) splitRun(run string) []string {
	if len(e.particles) == 0 {
		return []string{run}
	}
	runes := []rune(run)
	var segments []string
	start := 0
	for i := 1; i < len(runes)-1; i++ {
		if !e.particles[runes[i]] || isHiragana(runes[i-1]) || isHiragana(runes[i+1]) {
			continue
		}
		segments = append(segments, e.trimParticles(runes[start:i]))
		start = i + 1
	}
	segments = append(segments, e.trimParticles(runes[start:]))
	return segments
}

func (e *Extractor) trimParticles(segment []rune) string {
	return strings.TrimFunc(string(segment), func(r rune) bool { return e.particles[r] })
}

func isHiragana(r rune) bool {
	return r >= 0x3040 && r <= 0x309F
}
