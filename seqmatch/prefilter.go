package seqmatch

import (
	"fmt"
	"strings"

	ac "github.com/petar-dambovaliev/aho-corasick"
)

// Literal prefilter for batch scanning over string sequences. Exact and
// SubstringOf elements contribute literal needles to an Aho-Corasick
// automaton; a window whose rendered items contain none of the needles cannot
// match any contributing pattern, so the full engine scan can be skipped.
//
// The prefilter is conservative: patterns that contribute no literal
// (wildcards, predicates, ranges, negative assertions) disable the fast
// reject, and MightMatch then always reports true.

// PrefilterStats summarizes an automaton build.
type PrefilterStats struct {
	// PatternCount is the number of distinct literal needles.
	PatternCount int `json:"pattern_count"`
	// ElementCount is the number of elements inspected across all patterns.
	ElementCount int `json:"element_count"`
	// EstimatedSelectivity ranges 0.0 (very selective) to 1.0 (matches all).
	EstimatedSelectivity float64 `json:"estimated_selectivity"`
	// MemoryUsage is a rough automaton footprint estimate in bytes.
	MemoryUsage int `json:"memory_usage"`
}

// IsEffective reports whether the prefilter is expected to pay for itself.
func (s PrefilterStats) IsEffective() bool {
	return s.PatternCount >= 5 && s.EstimatedSelectivity < 0.7
}

// ShouldEnablePrefilter reports whether running the prefilter at all is
// worthwhile.
func (s PrefilterStats) ShouldEnablePrefilter() bool {
	return s.PatternCount >= 1 && s.EstimatedSelectivity < 0.8
}

// PerformanceSummary describes the expected gain for logs and diagnostics.
func (s PrefilterStats) PerformanceSummary() string {
	if s.PatternCount == 0 {
		return "No literal patterns - prefilter disabled"
	}
	gain := (1.0 - s.EstimatedSelectivity) * 100.0
	switch {
	case s.EstimatedSelectivity < 0.3:
		return fmt.Sprintf("High selectivity (%.1f%%) - excellent filtering expected", gain)
	case s.EstimatedSelectivity < 0.6:
		return fmt.Sprintf("Medium selectivity (%.1f%%) - good filtering expected", gain)
	default:
		return fmt.Sprintf("Low selectivity (%.1f%%) - minimal filtering expected", gain)
	}
}

// PrefilterConfig controls automaton construction.
type PrefilterConfig struct {
	// CaseInsensitive enables ASCII case folding in the automaton.
	CaseInsensitive bool `json:"case_insensitive"`
	// MinNeedleLength drops needles shorter than this.
	MinNeedleLength int `json:"min_needle_length"`
	// MaxNeedles caps the needle count (nil = no limit).
	MaxNeedles *int `json:"max_needles"`
	// Enabled is the master switch; a disabled prefilter passes everything.
	Enabled bool `json:"enabled"`
}

// DefaultPrefilterConfig returns sensible defaults.
func DefaultPrefilterConfig() PrefilterConfig {
	max := 1000
	return PrefilterConfig{
		CaseInsensitive: false,
		MinNeedleLength: 1,
		MaxNeedles:      &max,
		Enabled:         true,
	}
}

// LiteralPrefilter is the built automaton plus bookkeeping.
type LiteralPrefilter struct {
	automaton *ac.AhoCorasick
	needles   []string
	// exhaustive is true when every pattern contributed at least one literal,
	// making a miss a definitive reject.
	exhaustive bool
	stats      PrefilterStats
	cfg        PrefilterConfig
}

// Stats returns the build statistics.
func (p *LiteralPrefilter) Stats() PrefilterStats { return p.stats }

// Needles returns the literal needles in build order.
func (p *LiteralPrefilter) Needles() []string {
	return append([]string(nil), p.needles...)
}

// PrefilterFromPatterns builds a prefilter from string patterns with the
// default configuration.
func PrefilterFromPatterns(patterns []Pattern[string]) LiteralPrefilter {
	return PrefilterWithConfig(patterns, DefaultPrefilterConfig())
}

// PrefilterWithConfig builds a prefilter with a custom configuration.
func PrefilterWithConfig(patterns []Pattern[string], cfg PrefilterConfig) LiteralPrefilter {
	if !cfg.Enabled {
		return LiteralPrefilter{
			cfg:   cfg,
			stats: PrefilterStats{EstimatedSelectivity: 1.0},
		}
	}

	b := needleBuilder{cfg: cfg, dedupe: make(map[string]struct{})}
	exhaustive := len(patterns) > 0
	for i := range patterns {
		if !b.addPattern(&patterns[i]) {
			exhaustive = false
		}
	}

	stats := PrefilterStats{
		PatternCount:         len(b.needles),
		ElementCount:         b.elementCount,
		EstimatedSelectivity: estimateSelectivity(len(b.needles)),
		MemoryUsage:          estimateMemoryUsage(b.needles),
	}

	var automaton *ac.AhoCorasick
	if len(b.needles) > 0 {
		builder := ac.NewAhoCorasickBuilder(ac.Opts{
			AsciiCaseInsensitive: cfg.CaseInsensitive,
			MatchKind:            ac.LeftMostLongestMatch,
		})
		built := builder.Build(b.needles)
		automaton = &built
	}

	return LiteralPrefilter{
		automaton:  automaton,
		needles:    b.needles,
		exhaustive: exhaustive,
		stats:      stats,
		cfg:        cfg,
	}
}

// HasMatch reports whether any needle occurs in text.
func (p *LiteralPrefilter) HasMatch(text string) bool {
	if p.automaton == nil {
		return false
	}
	return len(p.automaton.FindAll(text)) > 0
}

// MightMatch reports whether a full engine scan of items could produce a
// match. false is a definitive reject; true means run the engine.
func (p *LiteralPrefilter) MightMatch(items []string) bool {
	if !p.exhaustive || p.automaton == nil {
		return true
	}
	for _, it := range items {
		if p.HasMatch(it) {
			return true
		}
	}
	return false
}

type needleBuilder struct {
	cfg          PrefilterConfig
	dedupe       map[string]struct{}
	needles      []string
	elementCount int
}

// addPattern collects literal needles from a pattern's elements. Reports
// whether the pattern contributed at least one literal, i.e. whether a
// needle miss rules the pattern out.
func (b *needleBuilder) addPattern(p *Pattern[string]) bool {
	contributed := false
	for i := range p.Elements {
		if b.addElement(&p.Elements[i]) {
			contributed = true
		}
	}
	return contributed
}

func (b *needleBuilder) addElement(e *Element[string]) bool {
	b.elementCount++
	set := e.Settings()
	if set.MaxRepeat == 0 || set.MinRepeat == 0 {
		// negative assertions and skippable elements prove nothing
		return false
	}
	switch e.kind {
	case kindExact:
		return b.push(e.value)
	case kindSubstring:
		return b.push(e.substr)
	case kindRepeat:
		return b.addElement(e.inner)
	default:
		return false
	}
}

func (b *needleBuilder) push(needle string) bool {
	if len(needle) < b.cfg.MinNeedleLength {
		return false
	}
	if b.cfg.MaxNeedles != nil && len(b.needles) >= *b.cfg.MaxNeedles {
		return false
	}
	key := needle
	if b.cfg.CaseInsensitive {
		key = strings.ToLower(needle)
	}
	if _, dup := b.dedupe[key]; dup {
		return true
	}
	b.dedupe[key] = struct{}{}
	b.needles = append(b.needles, needle)
	return true
}

func estimateSelectivity(needleCount int) float64 {
	switch {
	case needleCount == 0:
		return 1.0
	case needleCount >= 50:
		return 0.05
	case needleCount >= 20:
		return 0.10
	case needleCount >= 10:
		return 0.20
	case needleCount >= 5:
		return 0.40
	default:
		return 0.70
	}
}

func estimateMemoryUsage(needles []string) int {
	stateCount := 0
	for _, n := range needles {
		stateCount += len(n)
	}
	transitionOverhead := stateCount * 256
	stateOverhead := stateCount * 32
	needleOverhead := len(needles) * 20
	return needleOverhead + transitionOverhead + stateOverhead
}
