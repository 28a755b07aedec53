// Package seqmatch matches structured, ordered patterns against sequences of
// arbitrary comparable items, either over a fixed in-memory window (Matcher)
// or one item at a time (StreamMatcher).
//
// Patterns are built from elements (exact value, predicate, inclusive range,
// wildcard, nested repeat, substring probe), each carrying a quantifier
// (min/max repeat, greediness). Extractor hooks attached to elements or
// patterns run when a match completes and can transform matched data, alter
// control flow, or mutate the active pattern table mid-run.
//
// Matching is a single left-to-right scan with lookahead bounded by the
// quantifiers. There is no alternation, no backreferences and no automaton
// compilation; once an element's quantifier has consumed input the engine
// never backtracks across elements to retry.
package seqmatch

import "sort"

type tableEntry[T comparable] struct {
	name    string
	pattern Pattern[T]
	order   int
}

type pendingMutation[T comparable] struct {
	remove  bool
	name    string
	pattern Pattern[T]
}

// runState tracks one Run call: the input, staged table mutations, and
// control-flow effects raised by element-level extractors.
type runState[T comparable] struct {
	data      []T
	pending   []pendingMutation[T]
	restartTo int
	stop      bool
}

// Matcher is the batch engine. It owns a named pattern table and scans a
// complete input slice, trying patterns in priority order at every position.
//
// A Matcher is exclusively owned by a single goroutine; callers wanting
// concurrent use must impose external mutual exclusion.
type Matcher[T comparable, C any] struct {
	entries        []*tableEntry[T]
	reg            registry[T, C]
	context        *C
	windowSize     int
	position       int
	totalProcessed int
	extracted      []T
	nextOrder      int
}

// New constructs an empty batch matcher. capacityHint bounds initial table
// and window sizing; it is not a hard limit.
func New[T comparable, C any](capacityHint int) *Matcher[T, C] {
	if capacityHint < 0 {
		capacityHint = 0
	}
	return &Matcher[T, C]{
		entries:    make([]*tableEntry[T], 0, capacityHint),
		reg:        newRegistry[T, C](),
		windowSize: capacityHint,
	}
}

// AddPattern registers a named pattern built from elements with default
// pattern settings. Structural problems are rejected here, not mid-scan.
func (m *Matcher[T, C]) AddPattern(name string, elements ...Element[T]) error {
	return m.AddPatternWithSettings(name, NewPattern(elements...))
}

// AddPatternWithSettings registers a named pattern. An existing entry under
// the same name is replaced in place, keeping its table position.
func (m *Matcher[T, C]) AddPatternWithSettings(name string, p Pattern[T]) error {
	if err := p.validate(name); err != nil {
		return err
	}
	for _, en := range m.entries {
		if en.name == name {
			en.pattern = p
			return nil
		}
	}
	m.entries = append(m.entries, &tableEntry[T]{name: name, pattern: p, order: m.nextOrder})
	m.nextOrder++
	return nil
}

// RemovePattern drops the named pattern, returning it if present.
func (m *Matcher[T, C]) RemovePattern(name string) (Pattern[T], bool) {
	for i, en := range m.entries {
		if en.name == name {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return en.pattern, true
		}
	}
	var zero Pattern[T]
	return zero, false
}

// RegisterExtractor binds a hook to an id for later reference from element or
// pattern settings. Re-registering an id replaces the hook.
func (m *Matcher[T, C]) RegisterExtractor(id ExtractorID, fn Extractor[T, C]) {
	m.reg.register(id, fn)
}

// SetContext attaches an opaque user payload; the engine never inspects it.
// Extractors receive a pointer to it and may mutate it.
func (m *Matcher[T, C]) SetContext(ctx C) { m.context = &ctx }

// Context returns the attached user payload, nil if none was set.
func (m *Matcher[T, C]) Context() *C { return m.context }

// Patterns returns the table contents in registration order.
func (m *Matcher[T, C]) Patterns() []Pattern[T] {
	out := make([]Pattern[T], 0, len(m.entries))
	for _, en := range m.entries {
		out = append(out, en.pattern)
	}
	return out
}

// PatternNames returns the table keys in registration order.
func (m *Matcher[T, C]) PatternNames() []string {
	out := make([]string, 0, len(m.entries))
	for _, en := range m.entries {
		out = append(out, en.name)
	}
	return out
}

// PatternCount reports the number of registered patterns.
func (m *Matcher[T, C]) PatternCount() int { return len(m.entries) }

// CurrentPosition reports the input cursor after the last Run.
func (m *Matcher[T, C]) CurrentPosition() int { return m.position }

// TotalProcessed reports the total number of items scanned across runs.
func (m *Matcher[T, C]) TotalProcessed() int { return m.totalProcessed }

// WindowSize reports the configured window capacity hint.
func (m *Matcher[T, C]) WindowSize() int { return m.windowSize }

// SetWindowSize adjusts the window capacity hint.
func (m *Matcher[T, C]) SetWindowSize(n int) { m.windowSize = n }

// Extracted returns the values surfaced by Extract actions during the last
// Run, in the order they were produced.
func (m *Matcher[T, C]) Extracted() []T { return m.extracted }

// Reset forces the cursor and counters back to their initial state. After a
// Run returns an error the cursor state is undefined; call Reset before
// reusing the matcher.
func (m *Matcher[T, C]) Reset() {
	m.position = 0
	m.totalProcessed = 0
	m.extracted = nil
}

// Run scans data once. At each position, patterns are tried in ascending
// priority order (ties by registration order); the first full match wins and
// the cursor advances by the consumed length, minimum one to guarantee
// forward progress. Positions with no match advance by one. Results are the
// extractors' side effects plus any Extract values (see Extracted); there is
// no separate list of matches.
//
// Table mutations requested by extractors are staged and applied at the end
// of the scan position that raised them; a new pattern becomes visible from
// the next position onward.
func (m *Matcher[T, C]) Run(data []T) error {
	if len(m.entries) == 0 {
		return ErrNoPatterns
	}
	m.extracted = m.extracted[:0]
	rs := &runState[T]{data: data, restartTo: -1}

	pos := 0
	for pos < len(data) {
		advanced := false
		for _, en := range m.orderedEntries() {
			consumed, ok, err := m.tryMatchPattern(rs, pos, en)
			if err != nil {
				m.position = pos
				return err
			}
			if rs.stop {
				pos = len(data)
				advanced = true
				break
			}
			if rs.restartTo >= 0 {
				pos = rs.restartTo
				rs.restartTo = -1
				advanced = true
				break
			}
			if !ok {
				continue
			}
			next, err := m.afterPatternMatch(rs, pos, consumed, en)
			if err != nil {
				m.position = pos
				return err
			}
			pos = next
			advanced = true
			break
		}
		if !advanced {
			pos++
		}
		if err := m.applyPending(rs); err != nil {
			m.position = pos
			return err
		}
	}

	m.position = pos
	m.totalProcessed += len(data)
	return nil
}

// afterPatternMatch runs the pattern-level extractor, if any, and resolves
// the next scan position. Continue keeps the match-length advance; other
// actions override it.
func (m *Matcher[T, C]) afterPatternMatch(rs *runState[T], pos, consumed int, en *tableEntry[T]) (int, error) {
	next := pos + consumed
	if consumed == 0 {
		next = pos + 1
	}
	id := en.pattern.extractor()
	if id == NoExtractor {
		return next, nil
	}

	last := pos
	if consumed > 0 {
		last = pos + consumed - 1
	}
	state := &MatchState[T]{
		CurrentItem:  rs.data[last],
		Position:     pos,
		MatchedItems: rs.data[pos : pos+consumed],
		PatternName:  en.name,
		InputLength:  len(rs.data),
	}
	act, err := m.reg.dispatch(id, state, m.context)
	if err != nil {
		return 0, err
	}

	switch a := act.(type) {
	case continueAction:
		return next, nil
	case extractAction[T]:
		m.extracted = append(m.extracted, a.value)
		return len(rs.data), nil
	case skipAction:
		target := pos + a.n
		if target > len(rs.data) {
			return 0, &InvalidPositionError{Position: target, Length: len(rs.data)}
		}
		return target, nil
	case jumpAction:
		target := pos + a.offset
		if target < 0 {
			target = 0
		}
		if target > len(rs.data) {
			return 0, &InvalidPositionError{Position: target, Length: len(rs.data)}
		}
		return target, nil
	case restartFromAction:
		if a.pos > len(rs.data) {
			return 0, &InvalidPositionError{Position: a.pos, Length: len(rs.data)}
		}
		return a.pos, nil
	case discardAction, restartAction:
		return pos + 1, nil
	case stopAction:
		return len(rs.data), nil
	case addPatternAction[T]:
		if err := a.pattern.validate(a.name); err != nil {
			return 0, err
		}
		rs.pending = append(rs.pending, pendingMutation[T]{name: a.name, pattern: a.pattern})
		return next, nil
	case removePatternAction:
		if err := m.stageRemove(rs, a.name); err != nil {
			return 0, err
		}
		return next, nil
	default:
		return 0, &ExtractorFailedError{ID: id, Err: errWrongItemType(act)}
	}
}

// tryMatchPattern attempts all elements consecutively from pos. Returns the
// total consumed length on success. Element-level control-flow effects
// (stop, restart) abort the attempt and are left for Run to act on.
func (m *Matcher[T, C]) tryMatchPattern(rs *runState[T], pos int, en *tableEntry[T]) (int, bool, error) {
	cursor := pos
	for i := range en.pattern.Elements {
		consumed, ok, err := m.matchElement(rs, cursor, &en.pattern.Elements[i], en.name, i)
		if err != nil {
			return 0, false, err
		}
		if rs.stop || rs.restartTo >= 0 {
			return 0, false, nil
		}
		if !ok {
			return 0, false, nil
		}
		cursor += consumed
	}
	return cursor - pos, true, nil
}

// matchElement consumes consecutive matches of one element under its
// quantifier, invoking the attached extractor once per consumed item (for a
// Repeat, once per full inner match). Negative assertions are probed with no
// extractor side effects.
func (m *Matcher[T, C]) matchElement(rs *runState[T], pos int, e *Element[T], patternName string, elementIndex int) (int, bool, error) {
	if pos >= len(rs.data) {
		return 0, false, nil
	}
	set := e.Settings()
	if set.MaxRepeat == 0 {
		consumed, ok := matchLength(rs.data, pos, e)
		return consumed, ok, nil
	}

	count := 0
	cursor := pos
	for count < set.MaxRepeat && cursor < len(rs.data) {
		var consumed int
		if e.kind == kindRepeat {
			inner, ok := matchLength(rs.data, cursor, e.inner)
			if !ok {
				break
			}
			consumed = inner
		} else {
			if !e.matchItem(rs.data[cursor]) {
				break
			}
			consumed = 1
		}
		count++
		cursor += consumed

		if set.Extractor != NoExtractor {
			last := cursor - 1
			if consumed == 0 {
				last = cursor
			}
			state := &MatchState[T]{
				CurrentItem:  rs.data[min(last, len(rs.data)-1)],
				Position:     cursor - consumed,
				MatchedItems: rs.data[cursor-consumed : cursor],
				PatternName:  patternName,
				ElementIndex: elementIndex,
				InputLength:  len(rs.data),
			}
			act, err := m.reg.dispatch(set.Extractor, state, m.context)
			if err != nil {
				return 0, false, err
			}
			newCursor, done, matched, err := m.applyElementAction(rs, act, cursor, set)
			if err != nil {
				return 0, false, err
			}
			cursor = newCursor
			if done {
				if !matched {
					return 0, false, nil
				}
				break
			}
		}

		if consumed == 0 {
			break
		}
		if !set.Greedy && count >= set.MinRepeat {
			break
		}
	}

	if count < set.MinRepeat {
		return 0, false, nil
	}
	consumed := cursor - pos
	if consumed < 0 {
		consumed = 0
	}
	return consumed, true, nil
}

// applyElementAction maps an element-level extractor action onto the local
// consumption cursor. done=true ends the element's consumption loop; when it
// also reports matched=false the whole pattern attempt is abandoned.
func (m *Matcher[T, C]) applyElementAction(rs *runState[T], act Action, cursor int, set ElementSettings) (newCursor int, done, matched bool, err error) {
	switch a := act.(type) {
	case continueAction:
		return cursor, false, true, nil
	case extractAction[T]:
		m.extracted = append(m.extracted, a.value)
		rs.stop = true
		return cursor, true, true, nil
	case skipAction:
		target := cursor + a.n
		if target > len(rs.data) {
			return 0, false, false, &InvalidPositionError{Position: target, Length: len(rs.data)}
		}
		return target, false, true, nil
	case jumpAction:
		target := cursor + a.offset
		if target < 0 {
			target = 0
		}
		if target > len(rs.data) {
			return 0, false, false, &InvalidPositionError{Position: target, Length: len(rs.data)}
		}
		return target, false, true, nil
	case restartFromAction:
		if a.pos > len(rs.data) {
			return 0, false, false, &InvalidPositionError{Position: a.pos, Length: len(rs.data)}
		}
		rs.restartTo = a.pos
		return cursor, true, false, nil
	case discardAction, restartAction:
		return cursor, true, false, nil
	case stopAction:
		rs.stop = true
		return cursor, true, false, nil
	case addPatternAction[T]:
		if err := a.pattern.validate(a.name); err != nil {
			return 0, false, false, err
		}
		rs.pending = append(rs.pending, pendingMutation[T]{name: a.name, pattern: a.pattern})
		return cursor, false, true, nil
	case removePatternAction:
		if err := m.stageRemove(rs, a.name); err != nil {
			return 0, false, false, err
		}
		return cursor, false, true, nil
	default:
		return 0, false, false, &ExtractorFailedError{ID: set.Extractor, Err: errWrongItemType(act)}
	}
}

// stageRemove validates that the named pattern exists now and stages its
// removal for the end of the current scan position.
func (m *Matcher[T, C]) stageRemove(rs *runState[T], name string) error {
	found := false
	for _, en := range m.entries {
		if en.name == name {
			found = true
			break
		}
	}
	if !found {
		return &PatternNotFoundError{Name: name}
	}
	rs.pending = append(rs.pending, pendingMutation[T]{remove: true, name: name})
	return nil
}

// applyPending applies staged table mutations at the end-of-position
// synchronization point, in the order they were requested.
func (m *Matcher[T, C]) applyPending(rs *runState[T]) error {
	if len(rs.pending) == 0 {
		return nil
	}
	for _, p := range rs.pending {
		if p.remove {
			m.RemovePattern(p.name)
			continue
		}
		if err := m.AddPatternWithSettings(p.name, p.pattern); err != nil {
			return err
		}
	}
	rs.pending = rs.pending[:0]
	return nil
}

// orderedEntries returns the table sorted by priority, ties broken by
// registration order. The sort is recomputed per scan position so staged
// mutations take effect immediately once applied.
func (m *Matcher[T, C]) orderedEntries() []*tableEntry[T] {
	ordered := make([]*tableEntry[T], len(m.entries))
	copy(ordered, m.entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		pi, pj := ordered[i].pattern.priority(), ordered[j].pattern.priority()
		if pi != pj {
			return pi < pj
		}
		return ordered[i].order < ordered[j].order
	})
	return ordered
}

type wrongItemTypeError struct{ name string }

func (e *wrongItemTypeError) Error() string {
	return "action " + e.name + " carries a value of the wrong item type"
}

func errWrongItemType(act Action) error {
	return &wrongItemTypeError{name: act.actionName()}
}
