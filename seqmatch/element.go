package seqmatch

import (
	"cmp"
	"fmt"
	"strings"
)

type elementKind uint8

const (
	kindExact elementKind = iota
	kindPredicate
	kindRange
	kindWildcard
	kindRepeat
	kindSubstring
)

func (k elementKind) String() string {
	switch k {
	case kindExact:
		return "exact"
	case kindPredicate:
		return "predicate"
	case kindRange:
		return "range"
	case kindWildcard:
		return "wildcard"
	case kindRepeat:
		return "repeat"
	case kindSubstring:
		return "substring"
	default:
		return "unknown"
	}
}

// ExtractorID identifies a registered extractor hook. NoExtractor (zero)
// means no hook is attached.
type ExtractorID int

// NoExtractor is the zero ExtractorID; settings carrying it bind no hook.
const NoExtractor ExtractorID = 0

// ElementSettings configures repetition, ordering and the extractor hook for
// a single element.
//
// MaxRepeat == 0 together with MinRepeat == 0 turns the element into a
// negative assertion: it succeeds, consuming nothing, exactly when the
// element would NOT match at the current position. MaxRepeat == 0 with
// MinRepeat > 0 is unsatisfiable and rejected at registration.
type ElementSettings struct {
	MinRepeat int
	MaxRepeat int
	// Greedy consumes up to MaxRepeat matches; non-greedy stops as soon as
	// MinRepeat is satisfied.
	Greedy bool
	// Optional applies in incremental mode only: on mismatch the cursor moves
	// past this element without consuming the item.
	Optional bool
	// Priority orders elements/patterns; lower value is tried first.
	Priority uint32
	// Extractor binds a hook id registered via RegisterExtractor.
	Extractor ExtractorID
}

// DefaultSettings returns the element defaults: match exactly once,
// non-greedy, required, priority 0, no extractor.
func DefaultSettings() ElementSettings {
	return ElementSettings{MinRepeat: 1, MaxRepeat: 1}
}

func (s ElementSettings) validate() error {
	if s.MinRepeat > s.MaxRepeat && s.MaxRepeat != 0 {
		return &InvalidPatternError{Reason: fmt.Sprintf("min repeat %d exceeds max repeat %d", s.MinRepeat, s.MaxRepeat)}
	}
	if s.MaxRepeat == 0 && s.MinRepeat > 0 {
		return &InvalidPatternError{Reason: fmt.Sprintf("min repeat %d with max repeat 0 is unsatisfiable", s.MinRepeat)}
	}
	if s.MinRepeat < 0 || s.MaxRepeat < 0 {
		return &InvalidPatternError{Reason: "negative repeat bound"}
	}
	return nil
}

// Element is one matchable unit of a pattern: an exact value, a predicate,
// an inclusive range, a wildcard, a nested repeat, or a substring probe.
//
// Elements are plain values. Copying one aliases any predicate function it
// holds; predicates are shared, never duplicated.
type Element[T comparable] struct {
	kind     elementKind
	value    T
	pred     func(T) bool
	substr   string
	inner    *Element[T]
	settings *ElementSettings
}

func pickSettings(settings []ElementSettings) *ElementSettings {
	if len(settings) == 0 {
		return nil
	}
	s := settings[0]
	return &s
}

// Exact matches items equal to v.
func Exact[T comparable](v T, settings ...ElementSettings) Element[T] {
	return Element[T]{kind: kindExact, value: v, settings: pickSettings(settings)}
}

// Predicate matches items for which fn returns true.
func Predicate[T comparable](fn func(T) bool, settings ...ElementSettings) Element[T] {
	return Element[T]{kind: kindPredicate, pred: fn, settings: pickSettings(settings)}
}

// Range matches items in the inclusive interval [lo, hi].
func Range[T cmp.Ordered](lo, hi T, settings ...ElementSettings) Element[T] {
	return Element[T]{
		kind:     kindRange,
		pred:     func(item T) bool { return lo <= item && item <= hi },
		settings: pickSettings(settings),
	}
}

// RangeFunc matches items in the inclusive interval [lo, hi] under the given
// strict ordering, for item types outside cmp.Ordered.
func RangeFunc[T comparable](lo, hi T, less func(a, b T) bool, settings ...ElementSettings) Element[T] {
	return Element[T]{
		kind:     kindRange,
		pred:     func(item T) bool { return !less(item, lo) && !less(hi, item) },
		settings: pickSettings(settings),
	}
}

// Wildcard matches any item.
func Wildcard[T comparable](settings ...ElementSettings) Element[T] {
	return Element[T]{kind: kindWildcard, settings: pickSettings(settings)}
}

// Repeat wraps inner so the wrapper's quantifier applies to repetitions of
// one full inner match. Each iteration consumes whatever a complete inner
// match consumes, honoring the inner element's own settings.
func Repeat[T comparable](inner Element[T], settings ...ElementSettings) Element[T] {
	in := inner
	return Element[T]{kind: kindRepeat, inner: &in, settings: pickSettings(settings)}
}

// SubstringOf matches items whose textual rendering (fmt.Sprint) contains
// text. This is a loose, debug-oriented probe over the rendered form, not a
// structural comparison; prefer Exact or Predicate where structure matters.
func SubstringOf[T comparable](text string, settings ...ElementSettings) Element[T] {
	return Element[T]{kind: kindSubstring, substr: text, settings: pickSettings(settings)}
}

// Settings returns the element's effective settings, falling back to
// DefaultSettings when none were attached.
func (e *Element[T]) Settings() ElementSettings {
	if e.settings == nil {
		return DefaultSettings()
	}
	return *e.settings
}

// matchItem tests the element against a single item, ignoring the quantifier.
// A Repeat delegates the single-item probe to its inner element.
func (e *Element[T]) matchItem(item T) bool {
	switch e.kind {
	case kindExact:
		return item == e.value
	case kindPredicate, kindRange:
		return e.pred(item)
	case kindWildcard:
		return true
	case kindRepeat:
		return e.inner.matchItem(item)
	case kindSubstring:
		return strings.Contains(fmt.Sprint(item), e.substr)
	default:
		return false
	}
}

func (e *Element[T]) validate() error {
	if e.settings != nil {
		if err := e.settings.validate(); err != nil {
			return err
		}
	}
	if e.kind == kindRepeat {
		return e.inner.validate()
	}
	return nil
}

// String describes the element for debugging.
func (e Element[T]) String() string {
	switch e.kind {
	case kindExact:
		return fmt.Sprintf("Exact(%v)", e.value)
	case kindSubstring:
		return fmt.Sprintf("SubstringOf(%q)", e.substr)
	case kindRepeat:
		return fmt.Sprintf("Repeat(%s)", e.inner.String())
	default:
		return e.kind.String()
	}
}
