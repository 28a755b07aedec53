package seqmatch

// StreamMatcher is the incremental engine: one element chain per instance,
// fed one item per ProcessItem call. It reproduces the batch semantics over a
// stream without requiring the whole sequence up front.
//
// The cursor indexes the chain, not the input. A mismatch on a required
// element resets the cursor to zero (a restart, not a failure); completing
// the chain auto-resets so the next call starts a fresh match. The machine
// has no terminal state; it runs for as long as items arrive.
type StreamMatcher[T comparable, C any] struct {
	elements       []Element[T]
	reg            registry[T, C]
	context        *C
	cursor         int
	totalProcessed int
	windowSize     int
}

// NewStream constructs an empty incremental matcher. windowSize is a
// capacity hint for ring-buffer-style callers, not a hard limit.
func NewStream[T comparable, C any](windowSize int) *StreamMatcher[T, C] {
	return &StreamMatcher[T, C]{
		reg:        newRegistry[T, C](),
		windowSize: windowSize,
	}
}

// StreamWithPatterns constructs an incremental matcher with its element chain
// preloaded. Invalid elements are rejected the same way AddElement rejects
// them; the first error wins and later elements are still appended.
func StreamWithPatterns[T comparable, C any](elements []Element[T], windowSize int) (*StreamMatcher[T, C], error) {
	s := NewStream[T, C](windowSize)
	var firstErr error
	for _, e := range elements {
		if err := s.AddElement(e); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return s, firstErr
}

// AddElement appends one element to the chain; chain position is the match
// order. Structural problems are rejected here, not during processing.
func (s *StreamMatcher[T, C]) AddElement(e Element[T]) error {
	if err := e.validate(); err != nil {
		return err
	}
	s.elements = append(s.elements, e)
	return nil
}

// RegisterExtractor binds a hook to an id for later reference from element
// settings. Re-registering an id replaces the hook.
func (s *StreamMatcher[T, C]) RegisterExtractor(id ExtractorID, fn Extractor[T, C]) {
	s.reg.register(id, fn)
}

// SetContext attaches an opaque user payload; extractors receive a pointer
// to it and may mutate it.
func (s *StreamMatcher[T, C]) SetContext(ctx C) { s.context = &ctx }

// Context returns the attached user payload, nil if none was set.
func (s *StreamMatcher[T, C]) Context() *C { return s.context }

// CurrentPosition reports the chain cursor: the index of the element the next
// item will be tested against.
func (s *StreamMatcher[T, C]) CurrentPosition() int { return s.cursor }

// PatternCount reports the chain length.
func (s *StreamMatcher[T, C]) PatternCount() int { return len(s.elements) }

// TotalProcessed reports the number of items fed since the last Reset.
func (s *StreamMatcher[T, C]) TotalProcessed() int { return s.totalProcessed }

// WindowSize reports the configured window capacity hint.
func (s *StreamMatcher[T, C]) WindowSize() int { return s.windowSize }

// SetWindowSize adjusts the window capacity hint.
func (s *StreamMatcher[T, C]) SetWindowSize(n int) { s.windowSize = n }

// Reset forces the cursor and the processed counter back to zero. After an
// error the cursor state is undefined; call Reset before reuse.
func (s *StreamMatcher[T, C]) Reset() {
	s.cursor = 0
	s.totalProcessed = 0
}

// ProcessItem feeds one item. It returns (value, true, nil) when the item
// completes the chain or an extractor surfaces a value via Extract, and
// (zero, false, nil) while the chain is in progress or was reset by a
// mismatch. Non-matches are never errors.
//
// Each element consumes exactly one item: the quantifier bounds beyond the
// MaxRepeat == 0 assertion form are not honored here, only in batch mode.
//
// An optional element that fails to match is skipped and the same item is
// retested against the next element within the same call; a negative
// assertion that holds is passed over the same way, consuming nothing.
// Completion reached purely by skipping, without the item itself matching,
// produces no value.
func (s *StreamMatcher[T, C]) ProcessItem(item T) (T, bool, error) {
	var zero T
	if len(s.elements) == 0 {
		return zero, false, ErrNoPatterns
	}
	position := s.totalProcessed
	s.totalProcessed++

	for {
		e := &s.elements[s.cursor]
		set := e.Settings()

		if set.MaxRepeat == 0 {
			// zero-width assertion: holds exactly when the element does not
			// match, probed with no extractor side effects
			if e.matchItem(item) {
				s.cursor = 0
				return zero, false, nil
			}
			s.cursor++
			if s.cursor >= len(s.elements) {
				s.cursor = 0
				return zero, false, nil
			}
			continue
		}

		if !e.matchItem(item) {
			if set.Optional {
				s.cursor++
				if s.cursor >= len(s.elements) {
					// chain exhausted by skipping alone: nothing matched
					s.cursor = 0
					return zero, false, nil
				}
				continue
			}
			s.cursor = 0
			return zero, false, nil
		}

		if set.Extractor != NoExtractor {
			state := &MatchState[T]{
				CurrentItem:  item,
				Position:     position,
				MatchedItems: []T{item},
				ElementIndex: s.cursor,
			}
			act, err := s.reg.dispatch(set.Extractor, state, s.context)
			if err != nil {
				return zero, false, err
			}
			v, done, ok, err := s.applyStreamAction(act, set)
			if err != nil {
				return zero, false, err
			}
			if done {
				return v, ok, nil
			}
		}

		s.cursor++
		if s.cursor >= len(s.elements) {
			s.cursor = 0
			return item, true, nil
		}
		return zero, false, nil
	}
}

// applyStreamAction maps an extractor action onto the chain cursor. The
// batch-mode positional actions reposition within the element chain here:
// Skip and Jump move the chain cursor, RestartFrom forces it, and a target
// past the chain length is an InvalidPositionError. done=true ends the call,
// with ok reporting whether a value is surfaced.
func (s *StreamMatcher[T, C]) applyStreamAction(act Action, set ElementSettings) (v T, done, ok bool, err error) {
	var zero T
	switch a := act.(type) {
	case continueAction:
		return zero, false, false, nil
	case extractAction[T]:
		s.cursor = 0
		return a.value, true, true, nil
	case restartAction, discardAction:
		s.cursor = 0
		return zero, true, false, nil
	case stopAction:
		s.cursor = 0
		return zero, true, false, nil
	case skipAction:
		target := s.cursor + a.n
		if target > len(s.elements) {
			return zero, false, false, &InvalidPositionError{Position: target, Length: len(s.elements)}
		}
		s.cursor = target
		return s.settleCursor()
	case jumpAction:
		target := s.cursor + a.offset
		if target < 0 {
			target = 0
		}
		if target > len(s.elements) {
			return zero, false, false, &InvalidPositionError{Position: target, Length: len(s.elements)}
		}
		s.cursor = target
		return s.settleCursor()
	case restartFromAction:
		if a.pos > len(s.elements) {
			return zero, false, false, &InvalidPositionError{Position: a.pos, Length: len(s.elements)}
		}
		s.cursor = a.pos
		return s.settleCursor()
	case addPatternAction[T]:
		if err := a.pattern.validate(a.name); err != nil {
			return zero, false, false, err
		}
		// chain mode has no named table; the pattern's elements extend the
		// chain, visible to subsequent items
		s.elements = append(s.elements, a.pattern.Elements...)
		return zero, false, false, nil
	case removePatternAction:
		// an element chain holds no named entries
		return zero, false, false, &PatternNotFoundError{Name: a.name}
	default:
		return zero, false, false, &ExtractorFailedError{ID: set.Extractor, Err: errStreamAction(act)}
	}
}

// settleCursor finishes a repositioning action: landing exactly on the chain
// end counts as completion without a value (the reposition, not an item
// match, closed the chain).
func (s *StreamMatcher[T, C]) settleCursor() (v T, done, ok bool, err error) {
	var zero T
	if s.cursor >= len(s.elements) {
		s.cursor = 0
	}
	return zero, true, false, nil
}

// ProcessItems feeds items in order, collecting every surfaced value.
func (s *StreamMatcher[T, C]) ProcessItems(items []T) ([]T, error) {
	var out []T
	for _, item := range items {
		v, ok, err := s.ProcessItem(item)
		if err != nil {
			return out, err
		}
		if ok {
			out = append(out, v)
		}
	}
	return out, nil
}

type streamActionError struct{ name string }

func (e *streamActionError) Error() string {
	return "action " + e.name + " is not applicable to an element chain"
}

func errStreamAction(act Action) error {
	return &streamActionError{name: act.actionName()}
}
